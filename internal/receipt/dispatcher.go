package receipt

import (
	"context"
	"errors"
	"net/url"
	"time"

	"sevapay/internal/logger"
	"sevapay/internal/utils"

	"go.uber.org/zap"
)

const (
	ModeOnline   = "Online payment"
	notAvailable = "N/A"
)

var ErrNoReceiptPath = errors.New("receipt path is not configured")

// Details is everything printed on a receipt.
type Details struct {
	Name        string
	Phone       string
	AmountMinor int64
	Mode        string
	PaymentID   string
	OrderID     string
	// Location is printed only when set; blank fields read "N/A".
	Location *utils.Location
}

type Dispatcher struct {
	path string
	now  func() time.Time
	loc  *time.Location
}

func NewDispatcher(path string) *Dispatcher {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		logger.L().Error("failed to load Kolkata location, defaulting to UTC", zap.Error(err))
		loc = time.UTC
	}

	return &Dispatcher{
		path: path,
		now:  time.Now,
		loc:  loc,
	}
}

// Dispatch builds the receipt link the browser opens in a new tab.
func (d *Dispatcher) Dispatch(ctx context.Context, det Details) (string, error) {
	if d.path == "" {
		return "", ErrNoReceiptPath
	}

	u, err := url.Parse(d.path)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("name", det.Name)
	q.Set("phone", det.Phone)
	q.Set("date", d.now().In(d.loc).Format("2/1/2006"))
	q.Set("mode", utils.FirstNonEmpty(det.Mode, ModeOnline))
	q.Set("amount", utils.FormatMinorUnits(det.AmountMinor))
	q.Set("amountWords", utils.AmountInWords(det.AmountMinor/100))

	receiptNumber := utils.FirstNonEmpty(det.PaymentID, det.OrderID)
	if receiptNumber == "" {
		receiptNumber = utils.GenerateReceiptNumber()
	}
	q.Set("receiptNumber", receiptNumber)

	if det.Location != nil {
		q.Set("country", orNA(det.Location.Country))
		q.Set("state", orNA(det.Location.State))
		q.Set("city", orNA(det.Location.City))
		q.Set("postal_code", orNA(det.Location.PostalCode))
	}

	u.RawQuery = q.Encode()
	link := u.String()

	logger.FromCtx(ctx).Info("Receipt dispatched",
		zap.String("receipt_number", receiptNumber),
		zap.Int64("amount", det.AmountMinor),
	)
	return link, nil
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
