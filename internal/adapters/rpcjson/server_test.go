package rpcjson_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/sidhync-maker/workshop/internal/adapters/db/sqlite"
	"github.com/sidhync-maker/workshop/internal/adapters/rpcjson"
	"github.com/sidhync-maker/workshop/internal/application"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type rpcConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
	seq  int
}

func startServer(t *testing.T) *rpcConn {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "workshop_rpc.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.RunMigrations(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := application.NewWorkshopService(sqlite.NewWorkshopRepository(db), application.NewSessionStore(0))
	require.NoError(t, svc.BootstrapManager(ctx, "manager", "admin123"))
	_, _, err = svc.CreateUser(ctx, "alice", "wrench", domain.RoleMechanic)
	require.NoError(t, err)

	// unix socket paths are length limited, keep them out of the long test temp dir
	dir, err := os.MkdirTemp("", "wsrpc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	srv, err := rpcjson.Start(filepath.Join(dir, "rpc.sock"), svc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := net.Dial("unix", filepath.Join(dir, "rpc.sock"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &rpcConn{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *rpcConn) call(method string, params any) rpcResponse {
	c.t.Helper()
	c.seq++
	payload, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": method, "params": params, "id": c.seq})
	require.NoError(c.t, err)
	_, err = c.conn.Write(append(payload, '\n'))
	require.NoError(c.t, err)

	line, err := c.r.ReadBytes('\n')
	require.NoError(c.t, err)
	var resp rpcResponse
	require.NoError(c.t, json.Unmarshal(line, &resp))
	return resp
}

func (c *rpcConn) login(username, password string) string {
	c.t.Helper()
	resp := c.call("auth.login", map[string]string{"username": username, "password": password})
	require.Nil(c.t, resp.Error)
	var sess application.Session
	require.NoError(c.t, json.Unmarshal(resp.Result, &sess))
	require.NotEmpty(c.t, sess.Token)
	return sess.Token
}

func TestLoginAndWhoAmI(t *testing.T) {
	c := startServer(t)

	resp := c.call("auth.login", map[string]string{"username": "manager", "password": "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40100, resp.Error.Code)

	token := c.login("manager", "admin123")
	resp = c.call("auth.whoami", map[string]string{"token": token})
	require.Nil(t, resp.Error)
	var sess application.Session
	require.NoError(t, json.Unmarshal(resp.Result, &sess))
	assert.Equal(t, "manager", sess.Username)
	assert.Equal(t, domain.RoleManager, sess.Role)

	resp = c.call("auth.logout", map[string]string{"token": token})
	require.Nil(t, resp.Error)
	resp = c.call("auth.whoami", map[string]string{"token": token})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40100, resp.Error.Code)
}

func TestUnknownMethodAndBadRequest(t *testing.T) {
	c := startServer(t)
	token := c.login("manager", "admin123")

	resp := c.call("graph.trace", map[string]string{"token": token})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)

	resp = c.call("stock.list", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestPurchaseStockAndBilling(t *testing.T) {
	c := startServer(t)
	token := c.login("manager", "admin123")

	resp := c.call("purchases.add", map[string]any{"token": token, "item_code": "BRK01", "item_name": "Brake pad", "qty": 4, "rate": 250})
	require.Nil(t, resp.Error)
	var p domain.Purchase
	require.NoError(t, json.Unmarshal(resp.Result, &p))
	assert.Equal(t, 1000.0, p.Total)

	resp = c.call("purchases.add", map[string]any{"token": token, "item_code": "BRK01", "item_name": "Brake pad", "qty": 0, "rate": 250})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40000, resp.Error.Code)

	resp = c.call("purchases.import", map[string]any{"token": token, "csv": "item_code,item_name,qty,rate\nBRK01,Brake pad,6,240\n"})
	require.Nil(t, resp.Error)
	var report domain.ImportReport
	require.NoError(t, json.Unmarshal(resp.Result, &report))
	assert.Equal(t, 1, report.Imported)

	resp = c.call("stock.list", map[string]any{"token": token})
	require.Nil(t, resp.Error)
	var stock []domain.StockItem
	require.NoError(t, json.Unmarshal(resp.Result, &stock))
	require.Len(t, stock, 1)
	assert.Equal(t, 10, stock[0].Qty)

	resp = c.call("billing.amount", map[string]any{"token": token, "purchase_ids": []uint{p.ID}})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"purchase_amt":1000}`, string(resp.Result))

	resp = c.call("billing.add", map[string]any{"token": token, "car_model": "Sedan X", "labour": 500, "purchase_ids": []uint{p.ID}})
	require.Nil(t, resp.Error)
	var b domain.Billing
	require.NoError(t, json.Unmarshal(resp.Result, &b))
	assert.Equal(t, 1500.0, b.Total)

	resp = c.call("export", map[string]any{"token": token, "dataset": "stock"})
	require.Nil(t, resp.Error)
	var exported struct {
		CSV string `json:"csv"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &exported))
	assert.Equal(t, "id,item_code,item_name,qty\n1,BRK01,Brake pad,10\n", exported.CSV)

	resp = c.call("export", map[string]any{"token": token, "dataset": "users"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40400, resp.Error.Code)
}

func TestMechanicPermissions(t *testing.T) {
	c := startServer(t)
	alice := c.login("alice", "wrench")

	resp := c.call("purchases.list", map[string]any{"token": alice})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40300, resp.Error.Code)

	resp = c.call("mechanics.add", map[string]any{"token": alice, "username": "bob", "activity": "x", "earning": 1})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40300, resp.Error.Code)

	resp = c.call("mechanics.add", map[string]any{"token": alice, "work_date": "2024-05-01", "activity": "Oil change", "earning": 300})
	require.Nil(t, resp.Error)

	resp = c.call("mechanics.list", map[string]any{"token": alice})
	require.Nil(t, resp.Error)
	var entries []domain.MechanicEntry
	require.NoError(t, json.Unmarshal(resp.Result, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)

	resp = c.call("mechanics.earnings", map[string]any{"token": alice})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40300, resp.Error.Code)
}

func TestUsersAndCarModels(t *testing.T) {
	c := startServer(t)
	token := c.login("manager", "admin123")

	resp := c.call("users.create", map[string]any{"token": token, "username": "alice", "password": "x"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, 40900, resp.Error.Code)

	resp = c.call("users.create", map[string]any{"token": token, "username": "bob", "password": "x", "role": "mechanic"})
	require.Nil(t, resp.Error)

	resp = c.call("users.list", map[string]any{"token": token})
	require.Nil(t, resp.Error)
	var users []domain.User
	require.NoError(t, json.Unmarshal(resp.Result, &users))
	assert.Len(t, users, 3)

	resp = c.call("car_models.add", map[string]any{"token": token, "model": "Sedan X"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"model":"Sedan X","inserted":true}`, string(resp.Result))
	resp = c.call("car_models.add", map[string]any{"token": token, "model": "Sedan X"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"model":"Sedan X","inserted":false}`, string(resp.Result))

	resp = c.call("car_models.list", map[string]any{"token": token})
	require.Nil(t, resp.Error)
	var models []domain.CarModel
	require.NoError(t, json.Unmarshal(resp.Result, &models))
	assert.Len(t, models, 1)
}
