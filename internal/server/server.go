// Package server accepts TCP connections and dispatches protocol requests.
//
// Processing is single-request-at-a-time by construction: one connection is
// accepted, its request handled to completion (persistence and notification
// included) and answered before the next accept. The only cross-context
// coordination is the scheduler failure flag polled before each accept.
package server

import (
	"errors"
	"log"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/rumaak/bank-app/internal/domain"
	"github.com/rumaak/bank-app/internal/service"
	"github.com/rumaak/bank-app/internal/wire"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_requests_total",
		Help: "Total protocol requests processed, labeled by action and status",
	}, []string{"action", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_request_duration_seconds",
		Help:    "Latency distribution of request handling",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"action"})
)

// ErrSchedulerStopped ends the accept loop when the recurring payment
// scheduler has terminated.
var ErrSchedulerStopped = errors.New("recurring payment scheduler has exited")

// actionNames label metrics per action code.
var actionNames = map[int]string{
	1:  "login",
	2:  "register",
	3:  "transfer_to",
	4:  "transfer_from",
	5:  "direct_debit_setup",
	6:  "standing_order_setup",
	7:  "add_money",
	8:  "add_account",
	9:  "transaction_history",
	10: "list_accounts",
	11: "previous_targets",
}

type Server struct {
	svc           *service.Service
	schedulerDown *atomic.Bool
}

func New(svc *service.Service, schedulerDown *atomic.Bool) *Server {
	return &Server{svc: svc, schedulerDown: schedulerDown}
}

// Serve runs the accept loop until a fatal error. Framing problems abort
// the single request; anything that is neither a framing problem nor a
// business rejection stops the whole server.
func (s *Server) Serve(ln net.Listener) error {
	for {
		if s.schedulerDown.Load() {
			return ErrSchedulerStopped
		}
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		if err := s.handle(conn); err != nil {
			return err
		}
	}
}

func (s *Server) handle(conn net.Conn) error {
	defer conn.Close()

	frame, err := wire.ReadFrame(conn)
	if err != nil {
		log.Printf("read request: %v", err)
		return nil
	}

	resp, err := s.Dispatch(frame)
	if err != nil {
		return err
	}
	if _, err := conn.Write([]byte(resp)); err != nil {
		log.Printf("write response: %v", err)
	}
	return nil
}

// Dispatch maps a frame to its handler and serializes the outcome. The
// returned error is fatal (persistence failure); protocol and business
// errors are already folded into the response string.
func (s *Server) Dispatch(frame string) (string, error) {
	code, fields, err := wire.ParseRequest(frame)
	if err != nil {
		requestsTotal.WithLabelValues("unknown", "rejected").Inc()
		return wire.Rejected(""), nil
	}

	action, known := actionNames[code]
	if !known {
		requestsTotal.WithLabelValues("unknown", "rejected").Inc()
		return wire.Rejected(""), nil
	}

	timer := prometheus.NewTimer(requestDuration.WithLabelValues(action))
	defer timer.ObserveDuration()

	out, err := s.route(code, fields)

	var rej *service.Reject
	switch {
	case err == nil:
		requestsTotal.WithLabelValues(action, "accepted").Inc()
		return wire.Accepted(out...), nil
	case errors.As(err, &rej):
		requestsTotal.WithLabelValues(action, "rejected").Inc()
		return wire.Rejected(rej.Reason), nil
	case errors.Is(err, wire.ErrMalformed):
		requestsTotal.WithLabelValues(action, "rejected").Inc()
		return wire.Rejected(""), nil
	default:
		requestsTotal.WithLabelValues(action, "error").Inc()
		return "", err
	}
}

func (s *Server) route(code int, f []string) ([]string, error) {
	switch code {
	case 1:
		if len(f) != 2 {
			return nil, wire.ErrMalformed
		}
		return s.svc.Login(f[0], f[1])
	case 2:
		if len(f) != 2 {
			return nil, wire.ErrMalformed
		}
		return s.svc.Register(f[0], f[1])
	case 3:
		if len(f) != 5 {
			return nil, wire.ErrMalformed
		}
		amount, err := parseAmount(f[4])
		if err != nil {
			return nil, err
		}
		return s.svc.TransferTo(f[0], f[1], f[2], f[3], amount)
	case 4:
		if len(f) != 5 {
			return nil, wire.ErrMalformed
		}
		amount, err := parseAmount(f[4])
		if err != nil {
			return nil, err
		}
		return s.svc.TransferFrom(f[0], f[1], f[2], f[3], amount)
	case 5:
		return s.setupRecurring(f, domain.DirectDebit)
	case 6:
		return s.setupRecurring(f, domain.StandingOrder)
	case 7:
		if len(f) != 3 {
			return nil, wire.ErrMalformed
		}
		amount, err := parseAmount(f[2])
		if err != nil {
			return nil, err
		}
		return s.svc.AddMoney(f[0], f[1], amount)
	case 8:
		if len(f) != 2 {
			return nil, wire.ErrMalformed
		}
		return s.svc.AddAccount(f[0], f[1])
	case 9:
		if len(f) != 4 {
			return nil, wire.ErrMalformed
		}
		from, err := parseDate(f[2])
		if err != nil {
			return nil, err
		}
		to, err := parseDate(f[3])
		if err != nil {
			return nil, err
		}
		return s.svc.TransactionHistory(f[0], f[1], from, to)
	case 10:
		if len(f) != 1 {
			return nil, wire.ErrMalformed
		}
		return s.svc.ListAccounts(f[0])
	case 11:
		if len(f) != 2 {
			return nil, wire.ErrMalformed
		}
		return s.svc.PreviousTargets(f[0], f[1])
	}
	return nil, wire.ErrMalformed
}

func (s *Server) setupRecurring(f []string, ptype domain.PaymentType) ([]string, error) {
	if len(f) != 7 {
		return nil, wire.ErrMalformed
	}
	amount, err := parseAmount(f[4])
	if err != nil {
		return nil, err
	}
	start, err := parseDate(f[5])
	if err != nil {
		return nil, err
	}
	idx, err := strconv.Atoi(f[6])
	if err != nil {
		return nil, wire.ErrMalformed
	}
	return s.svc.SetupRecurringPayment(f[0], f[1], f[2], f[3], amount, start, idx, ptype)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, wire.ErrMalformed
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, wire.ErrMalformed
	}
	return t, nil
}
