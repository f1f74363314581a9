package domain

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes the booking core reports.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindPolicyViolation
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindPolicyViolation:
		return "policy_violation"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is a typed domain failure. Two errors are the same failure when their codes match,
// so a detailed error (naming a seat, a status) still satisfies errors.Is against the sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// withMessage returns a copy of the sentinel carrying a more specific message.
func (e *Error) withMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrTripNotFound               = &Error{Kind: KindNotFound, Code: "trip_not_found", Message: "trip not found"}
	ErrTripNotBookable            = &Error{Kind: KindPolicyViolation, Code: "trip_not_bookable", Message: "trip is not available for booking"}
	ErrSeatUnavailable            = &Error{Kind: KindConflict, Code: "seat_unavailable", Message: "seat is not available"}
	ErrSeatNotInTrip              = &Error{Kind: KindInvalid, Code: "seat_not_in_trip", Message: "one or more seats do not exist or do not belong to this trip"}
	ErrBookingNotFound            = &Error{Kind: KindNotFound, Code: "booking_not_found", Message: "booking not found"}
	ErrForbidden                  = &Error{Kind: KindForbidden, Code: "forbidden", Message: "booking belongs to another user"}
	ErrBookingNotPayable          = &Error{Kind: KindPolicyViolation, Code: "booking_not_payable", Message: "booking is not awaiting payment"}
	ErrBookingNotCancellable      = &Error{Kind: KindPolicyViolation, Code: "booking_not_cancellable", Message: "booking cannot be cancelled"}
	ErrCancellationWindowClosed   = &Error{Kind: KindPolicyViolation, Code: "cancellation_window_closed", Message: "cannot cancel a trip this close to departure"}
	ErrTransactionNotFound        = &Error{Kind: KindNotFound, Code: "transaction_not_found", Message: "transaction not found"}
	ErrTransactionAlreadyResolved = &Error{Kind: KindConflict, Code: "transaction_already_resolved", Message: "transaction has already been processed"}
	ErrInvalidInput               = &Error{Kind: KindInvalid, Code: "invalid_input", Message: "invalid input"}
	ErrInvalidLayout              = &Error{Kind: KindInvalid, Code: "invalid_layout", Message: "invalid seat layout"}
)

// KindOf extracts the domain kind from err, or KindUnknown for infrastructure failures.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

func SeatUnavailable(label string, status SeatStatus) error {
	return ErrSeatUnavailable.withMessage("seat %s is not available for booking (status: %s)", label, status)
}

func SeatNotInTrip(seatID, tripID int64) error {
	return ErrSeatNotInTrip.withMessage("seat %d does not exist or does not belong to trip %d", seatID, tripID)
}

func TripNotBookable(status TripStatus) error {
	return ErrTripNotBookable.withMessage("trip is not available for booking (status: %s)", status)
}

func BookingNotPayable(status BookingStatus) error {
	return ErrBookingNotPayable.withMessage("booking is not awaiting payment (status: %s)", status)
}

func BookingNotCancellable(status BookingStatus) error {
	return ErrBookingNotCancellable.withMessage("cannot cancel a booking with status %s", status)
}

func TransactionAlreadyResolved(status TransactionStatus) error {
	return ErrTransactionAlreadyResolved.withMessage("transaction has already been processed (status: %s)", status)
}

func InvalidInput(format string, args ...any) error {
	return ErrInvalidInput.withMessage(format, args...)
}

func InvalidLayout(format string, args ...any) error {
	return ErrInvalidLayout.withMessage(format, args...)
}
