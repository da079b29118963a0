package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/sidhync-maker/workshop/internal/application"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/sidhync-maker/workshop/internal/logger"
)

// Server speaks newline-delimited JSON-RPC 2.0 over a unix socket. Every
// method except auth.login carries the session token in params.token.
type Server struct {
	service  *application.WorkshopService
	listener net.Listener
	path     string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeBadRequest     = 40000
	codeUnauthorized   = 40100
	codeForbidden      = 40300
	codeNotFound       = 40400
	codeConflict       = 40900
	codeInternal       = 50000
)

func Start(path string, service *application.WorkshopService) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, listener: ln, path: path}
	go s.serve()
	logger.Info(context.Background(), "rpc socket listening", logger.String("path", path))
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParse, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "auth.login":
		return s.handleAuthLogin(ctx, req)
	case "auth.whoami":
		sess, rpcResp, ok := s.authz(ctx, req, application.PageHome)
		if !ok {
			return rpcResp
		}
		return result(req.ID, sess)
	case "auth.logout":
		sess, rpcResp, ok := s.authz(ctx, req, application.PageHome)
		if !ok {
			return rpcResp
		}
		s.service.Logout(ctx, sess.Token)
		return result(req.ID, map[string]any{"ok": true})

	case "users.list":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageUsers); !ok {
			return rpcResp
		}
		out, err := s.service.ListUsers(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "users.create":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageUsers); !ok {
			return rpcResp
		}
		var p struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, created, err := s.service.CreateUser(ctx, p.Username, p.Password, p.Role)
		if err != nil {
			return appError(req.ID, err)
		}
		if !created {
			return appError(req.ID, fmt.Errorf("%w: username %s already exists", domain.ErrDuplicate, strings.TrimSpace(p.Username)))
		}
		return result(req.ID, out)

	case "purchases.add":
		if _, rpcResp, ok := s.authz(ctx, req, application.PagePurchases); !ok {
			return rpcResp
		}
		var p struct {
			ItemCode string  `json:"item_code"`
			ItemName string  `json:"item_name"`
			Qty      int     `json:"qty"`
			Rate     float64 `json:"rate"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.AddPurchase(ctx, p.ItemCode, p.ItemName, p.Qty, p.Rate)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "purchases.list":
		if _, rpcResp, ok := s.authz(ctx, req, application.PagePurchases); !ok {
			return rpcResp
		}
		out, err := s.service.ListPurchases(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "purchases.import":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageData); !ok {
			return rpcResp
		}
		var p struct {
			CSV string `json:"csv"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ImportPurchases(ctx, strings.NewReader(p.CSV))
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)

	case "stock.list":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageStock); !ok {
			return rpcResp
		}
		out, err := s.service.ListStock(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)

	case "billing.add":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageBilling); !ok {
			return rpcResp
		}
		var p struct {
			application.BillingInput
			PurchaseIDs []uint `json:"purchase_ids"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if len(p.PurchaseIDs) > 0 {
			amount, err := s.service.PurchaseAmountFor(ctx, p.PurchaseIDs)
			if err != nil {
				return internalError(req.ID, err)
			}
			p.PurchaseAmount = amount
		}
		out, err := s.service.AddBilling(ctx, p.BillingInput)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "billing.list":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageBilling); !ok {
			return rpcResp
		}
		out, err := s.service.ListBilling(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "billing.amount":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageBilling); !ok {
			return rpcResp
		}
		var p struct {
			PurchaseIDs []uint `json:"purchase_ids"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		amount, err := s.service.PurchaseAmountFor(ctx, p.PurchaseIDs)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, map[string]any{"purchase_amt": amount})

	case "mechanics.add":
		sess, rpcResp, ok := s.authz(ctx, req, application.PageMechanics)
		if !ok {
			return rpcResp
		}
		var p struct {
			Username string  `json:"username"`
			WorkDate string  `json:"work_date"`
			Activity string  `json:"activity"`
			Earning  float64 `json:"earning"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		username, err := s.service.MechanicFor(sess, p.Username)
		if err != nil {
			return appError(req.ID, err)
		}
		out, err := s.service.AddMechanicEntry(ctx, username, p.WorkDate, p.Activity, p.Earning)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, out)
	case "mechanics.list":
		sess, rpcResp, ok := s.authz(ctx, req, application.PageMechanics)
		if !ok {
			return rpcResp
		}
		var p struct {
			Username string `json:"username"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.VisibleMechanicEntries(ctx, sess, p.Username)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)
	case "mechanics.earnings":
		sess, rpcResp, ok := s.authz(ctx, req, application.PageMechanics)
		if !ok {
			return rpcResp
		}
		if !sess.IsManager() {
			return appError(req.ID, fmt.Errorf("%w: earnings summary is for managers", domain.ErrForbidden))
		}
		out, err := s.service.MechanicEarnings(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)

	case "car_models.add":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageCarModels); !ok {
			return rpcResp
		}
		var p struct {
			Model string `json:"model"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		inserted, err := s.service.AddCarModel(ctx, p.Model)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"model": strings.TrimSpace(p.Model), "inserted": inserted})
	case "car_models.list":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageCarModels); !ok {
			return rpcResp
		}
		out, err := s.service.ListCarModels(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return result(req.ID, out)

	case "export":
		if _, rpcResp, ok := s.authz(ctx, req, application.PageData); !ok {
			return rpcResp
		}
		var p struct {
			Dataset string `json:"dataset"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		data, err := s.service.ExportCSV(ctx, p.Dataset)
		if err != nil {
			return appError(req.ID, err)
		}
		return result(req.ID, map[string]any{"dataset": p.Dataset, "csv": string(data)})
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeMethodNotFound, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) handleAuthLogin(ctx context.Context, req request) response {
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	sess, err := s.service.Login(ctx, p.Username, p.Password)
	if err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeUnauthorized, Message: "invalid credentials"}, ID: req.ID}
	}
	return result(req.ID, sess)
}

func (s *Server) authz(ctx context.Context, req request, page string) (application.Session, response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if !decodeParams(req.Params, &p) {
		return application.Session{}, invalidParams(req.ID), false
	}
	sess, err := s.service.Authenticate(ctx, p.Token)
	if err != nil {
		return application.Session{}, response{JSONRPC: "2.0", Error: &rpcError{Code: codeUnauthorized, Message: "unauthorized"}, ID: req.ID}, false
	}
	if err := s.service.Authorize(sess, page); err != nil {
		return application.Session{}, response{JSONRPC: "2.0", Error: &rpcError{Code: codeForbidden, Message: "forbidden"}, ID: req.ID}, false
	}
	sess.Token = p.Token
	return sess, response{}, true
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func result(id any, out any) response {
	return response{JSONRPC: "2.0", Result: out, ID: id}
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidParams, Message: "invalid params"}, ID: id}
}

func appError(id any, err error) response {
	code := codeBadRequest
	switch {
	case errors.Is(err, domain.ErrForbidden):
		code = codeForbidden
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		code = codeUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		code = codeNotFound
	case errors.Is(err, domain.ErrDuplicate):
		code = codeConflict
	case errors.Is(err, domain.ErrValidation):
		code = codeBadRequest
	default:
		return internalError(id, err)
	}
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: err.Error()}, ID: id}
}

func internalError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInternal, Message: fmt.Sprintf("internal error: %v", err)}, ID: id}
}
