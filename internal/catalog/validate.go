package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(walletRules, WalletInfo{})
	return v
}

// walletRules holds the cross-field rules tags cannot express.
func walletRules(sl validator.StructLevel) {
	w, ok := sl.Current().Interface().(WalletInfo)
	if !ok {
		return
	}

	if strings.ContainsAny(string(w.ID), " /?#") {
		sl.ReportError(w.ID, "ID", "id", "id_chars", "")
	}

	if w.DeepLink == "" && !w.NeedsCallback() {
		sl.ReportError(w.DeepLink, "DeepLink", "deep_link", "deeplink_or_callback", "")
	}

	switch w.Callback {
	case CallbackInvoice:
		if w.TransferMethod != Lightning {
			sl.ReportError(w.TransferMethod, "TransferMethod", "transfer_method", "lightning_for_pr", "")
		}
	case CallbackURI:
		if !w.HasMethod() {
			sl.ReportError(w.TransferMethod, "TransferMethod", "transfer_method", "method_for_uri", "")
		}
	}
}

// describe turns validator errors into one readable line per failed rule.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "oneof":
			msg = fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
		case "id_chars":
			msg = "id must not contain spaces or URL delimiters"
		case "deeplink_or_callback":
			msg = "deep_link is required unless a callback is configured"
		case "lightning_for_pr":
			msg = "pr callbacks require transfer_method Lightning"
		case "method_for_uri":
			msg = "uri callbacks require a transfer_method"
		default:
			msg = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}
