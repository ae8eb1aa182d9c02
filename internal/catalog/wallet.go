package catalog

// WalletAppID identifies a wallet application in the catalog.
type WalletAppID string

// TransferMethod names a settlement rail: a blockchain or a C2B payment scheme.
type TransferMethod string

// Blockchain transfer methods.
const (
	Lightning         TransferMethod = "Lightning"
	Bitcoin           TransferMethod = "Bitcoin"
	Ethereum          TransferMethod = "Ethereum"
	Polygon           TransferMethod = "Polygon"
	Arbitrum          TransferMethod = "Arbitrum"
	Optimism          TransferMethod = "Optimism"
	Base              TransferMethod = "Base"
	BinanceSmartChain TransferMethod = "BinanceSmartChain"
	Solana            TransferMethod = "Solana"
	Monero            TransferMethod = "Monero"
)

// C2B payment methods.
const (
	BinancePay TransferMethod = "BinancePay"
	KucoinPay  TransferMethod = "KucoinPay"
)

//nolint:gochecknoglobals // lookup tables
var (
	blockchains = map[TransferMethod]struct{}{
		Lightning: {}, Bitcoin: {}, Ethereum: {}, Polygon: {}, Arbitrum: {},
		Optimism: {}, Base: {}, BinanceSmartChain: {}, Solana: {}, Monero: {},
	}
	c2bMethods = map[TransferMethod]struct{}{
		BinancePay: {}, KucoinPay: {},
	}
)

// IsBlockchain reports whether m is an on-chain transfer method.
func (m TransferMethod) IsBlockchain() bool {
	_, ok := blockchains[m]
	return ok
}

// IsC2B reports whether m is a consumer-to-business payment scheme.
func (m TransferMethod) IsC2B() bool {
	_, ok := c2bMethods[m]
	return ok
}

// CallbackKind names the payload a wallet needs from the payment callback.
type CallbackKind string

// Callback kinds.
const (
	CallbackNone CallbackKind = ""
	// CallbackInvoice asks the callback for a Lightning invoice ("pr").
	CallbackInvoice CallbackKind = "pr"
	// CallbackURI asks the callback for a ready payment URI or C2B code ("uri").
	CallbackURI CallbackKind = "uri"
)

// WalletInfo describes one wallet application.
//
// DeepLink is a template: a "{payload}" placeholder is replaced with the
// resolved payload, otherwise the payload is appended.
type WalletInfo struct {
	ID             WalletAppID    `yaml:"id" json:"id" validate:"required"`
	Name           string         `yaml:"name" json:"name" validate:"required"`
	DeepLink       string         `yaml:"deep_link,omitempty" json:"deep_link,omitempty"`
	TransferMethod TransferMethod `yaml:"transfer_method,omitempty" json:"transfer_method,omitempty"`
	Callback       CallbackKind   `yaml:"callback,omitempty" json:"callback,omitempty" validate:"omitempty,oneof=pr uri"`
	Asset          string         `yaml:"asset,omitempty" json:"asset,omitempty"`
	Recommended    bool           `yaml:"recommended,omitempty" json:"recommended"`
	SemiCompatible bool           `yaml:"semi_compatible,omitempty" json:"semi_compatible"`
	Disabled       bool           `yaml:"disabled,omitempty" json:"disabled"`
}

// HasMethod reports whether the wallet is tied to a specific transfer method.
func (w WalletInfo) HasMethod() bool {
	return w.TransferMethod != ""
}

// NeedsCallback reports whether resolving the wallet requires a callback round-trip.
func (w WalletInfo) NeedsCallback() bool {
	return w.Callback != CallbackNone
}
