package output

import (
	"errors"
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// ErrEmptyQRData indicates there is nothing to encode.
var ErrEmptyQRData = errors.New("qr data is empty")

// QRConfig configures QR code rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the number of empty blocks around the QR code.
	QuietZone int
	// HalfBlocks uses half-height blocks for a more compact display.
	HalfBlocks bool
}

// DefaultQRConfig returns defaults for deep links rendered in a terminal.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.M, // deep links are long and phone cameras scan screens at an angle
		QuietZone:  2,
		HalfBlocks: true,
	}
}

// WriteQR renders a QR code to any writer.
func WriteQR(w io.Writer, data string, cfg QRConfig) error {
	if data == "" {
		return ErrEmptyQRData
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}
