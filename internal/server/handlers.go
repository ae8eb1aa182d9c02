package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mrz1836/paylink/internal/callback"
	"github.com/mrz1836/paylink/internal/capability"
	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/deeplink"
	"github.com/mrz1836/paylink/internal/evmuri"
	"github.com/mrz1836/paylink/internal/metrics"
	"github.com/mrz1836/paylink/internal/output"
	"github.com/mrz1836/paylink/internal/payment"
	"github.com/mrz1836/paylink/internal/tracking"
	"github.com/mrz1836/paylink/internal/version"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Wallets int    `json:"wallets"`
	// Resolutions counts deep links resolved since start.
	Resolutions int64 `json:"resolutions"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Get().Version,
		Wallets:     s.catalog.Len(),
		Resolutions: metrics.Global.ResolutionsTotal(),
	})
}

type walletsResponse struct {
	capability.Result
	Quote   string                   `json:"quote,omitempty"`
	Methods []catalog.TransferMethod `json:"available_methods,omitempty"`
}

func (s *Server) handleWallets(c echo.Context) error {
	s.track(c, tracking.EventPageView, "")

	req, err := s.payRequest(c)
	if err != nil {
		return err
	}

	resp := walletsResponse{Result: capability.Filter(s.catalog, req)}
	if req != nil {
		resp.Quote = req.Quote.ID
		resp.Methods = req.AvailableMethods()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleWalletLink(c echo.Context) error {
	id := catalog.WalletAppID(c.Param("id"))
	s.track(c, tracking.EventWalletSelected, string(id))

	if _, ok := s.catalog.Get(id); !ok {
		return walletNotFound(s.catalog, id)
	}

	req, err := s.payRequest(c)
	if err != nil {
		return err
	}

	res, ok, err := s.resolver.Resolve(c.Request().Context(), id, deeplink.PaymentContext{
		Identifier: strings.TrimSpace(c.QueryParam("identifier")),
		Request:    req,
	})
	if err != nil {
		return err
	}
	if !ok {
		return plerr.WithSuggestion(
			plerr.WithDetails(plerr.ErrMissingContext, map[string]string{"wallet": string(id)}),
			"pass ?identifier=<payment identifier> and ?request=<payment link>",
		)
	}

	s.track(c, tracking.EventWalletResolved, string(id))
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleEVMURI(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("uri"))
	data, ok := evmuri.Parse(raw)
	if !ok {
		return plerr.WithDetails(plerr.ErrInvalidURI, map[string]string{"uri": raw})
	}

	if checksum, _ := strconv.ParseBool(c.QueryParam("checksum")); checksum {
		normalized, err := data.Checksummed()
		if err != nil {
			return err
		}
		data = normalized
	}
	return c.JSON(http.StatusOK, data)
}

// payRequest fetches the pay request named by ?request=, or returns nil when absent.
func (s *Server) payRequest(c echo.Context) (*payment.PayRequest, error) {
	link := strings.TrimSpace(c.QueryParam("request"))
	if link == "" {
		return nil, nil //nolint:nilnil // no request is a valid state
	}
	if s.payments == nil {
		return nil, plerr.WithDetails(plerr.ErrInvalidInput, map[string]string{
			"request": "payment link fetching is not configured",
		})
	}
	return s.payments.Fetch(c.Request().Context(), link)
}

func walletNotFound(c *catalog.Catalog, id catalog.WalletAppID) error {
	err := plerr.WithDetails(plerr.ErrWalletNotFound, map[string]string{"wallet": string(id)})
	if ids := c.Suggest(string(id)); len(ids) > 0 {
		err = plerr.WithSuggestion(err, "did you mean "+string(ids[0])+"?")
	}
	return err
}

// statusFor maps an error to the HTTP status returned to clients.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, plerr.ErrWalletNotFound), errors.Is(err, plerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, plerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, plerr.ErrMissingContext),
		errors.Is(err, plerr.ErrQuoteExpired),
		errors.Is(err, plerr.ErrInvalidURI),
		errors.Is(err, plerr.ErrInvalidAddress),
		errors.Is(err, plerr.ErrInvalidChecksum):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, callback.ErrCallbackStatus),
		errors.Is(err, callback.ErrCallbackInvalid),
		errors.Is(err, deeplink.ErrCallbackPayloadMissing),
		errors.Is(err, payment.ErrLinkStatus),
		errors.Is(err, plerr.ErrPayRequestInvalid),
		errors.Is(err, plerr.ErrNetworkError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError renders every handler error as the structured JSON error body.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	var detail output.ErrorDetail
	var he *echo.HTTPError
	if errors.As(err, &he) {
		detail = output.ErrorDetail{
			Code:     strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_")),
			Message:  strings.ToLower(http.StatusText(he.Code)),
			ExitCode: plerr.ExitGeneral,
		}
	} else {
		detail = output.NewErrorDetail(err)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, output.ErrorOutput{Error: detail})
}
