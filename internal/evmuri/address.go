package evmuri

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	plerr "github.com/mrz1836/paylink/pkg/errors"
)

// ChecksumAddress returns addr in EIP-55 mixed-case form.
// All-lowercase and all-uppercase input is accepted as unchecksummed;
// mixed-case input must already carry a valid checksum.
func ChecksumAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) || !strings.HasPrefix(addr, "0x") {
		return "", plerr.WithDetails(plerr.ErrInvalidAddress, map[string]string{"address": addr})
	}

	checksummed := common.HexToAddress(addr).Hex()

	body := addr[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return checksummed, nil
	}
	if addr != checksummed {
		return "", plerr.WithDetails(plerr.ErrInvalidChecksum, map[string]string{
			"expected": checksummed,
			"actual":   addr,
		})
	}
	return checksummed, nil
}

// Checksummed returns a copy of d with both addresses in EIP-55 form.
// Empty addresses are left empty.
func (d *Data) Checksummed() (*Data, error) {
	out := *d
	for _, field := range []*string{&out.Address, &out.TokenContractAddress} {
		if *field == "" {
			continue
		}
		sum, err := ChecksumAddress(*field)
		if err != nil {
			return nil, err
		}
		*field = sum
	}
	return &out, nil
}
