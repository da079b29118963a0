package main

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sidhync-maker/workshop/internal/application"
)

type billingParams struct {
	application.BillingInput
	PurchaseIDs []uint `json:"purchase_ids,omitempty"`
}

func doLogin(ctx context.Context, cfg cliConfig, username, password string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.login", map[string]any{"username": username, "password": password}, out)
	}
	client := newAPIClient(cfg.Server, "")
	return client.request(ctx, http.MethodPost, "/api/auth/login", map[string]any{"username": username, "password": password}, out)
}

func doWhoAmI(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.whoami", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/auth/whoami", nil, out)
}

func doLogout(ctx context.Context, cfg cliConfig) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.logout", map[string]any{"token": cfg.Token}, nil)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func doUsersList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "users.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/users", nil, out)
}

func doUsersCreate(ctx context.Context, cfg cliConfig, username, password, role string, out any) error {
	payload := map[string]any{"username": username, "password": password, "role": role}
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		payload["token"] = cfg.Token
		return client.call(ctx, "users.create", payload, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/users", payload, out)
}

func doPurchasesAdd(ctx context.Context, cfg cliConfig, code, name string, qty int, rate float64, out any) error {
	payload := map[string]any{"item_code": code, "item_name": name, "qty": qty, "rate": rate}
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		payload["token"] = cfg.Token
		return client.call(ctx, "purchases.add", payload, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/purchases", payload, out)
}

func doPurchasesList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "purchases.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/purchases", nil, out)
}

func doPurchasesImport(ctx context.Context, cfg cliConfig, data []byte, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "purchases.import", map[string]any{"token": cfg.Token, "csv": string(data)}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.upload(ctx, "/api/purchases/import", "text/csv", bytes.NewReader(data), out)
}

func doStockList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "stock.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/stock", nil, out)
}

func doBillingAdd(ctx context.Context, cfg cliConfig, in billingParams, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		payload := struct {
			Token string `json:"token"`
			billingParams
		}{Token: cfg.Token, billingParams: in}
		return client.call(ctx, "billing.add", payload, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/billing", in, out)
}

func doBillingList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "billing.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/billing", nil, out)
}

func doMechanicsAdd(ctx context.Context, cfg cliConfig, username, workDate, activity string, earning float64, out any) error {
	payload := map[string]any{"username": username, "work_date": workDate, "activity": activity, "earning": earning}
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		payload["token"] = cfg.Token
		return client.call(ctx, "mechanics.add", payload, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/mechanics", payload, out)
}

func doMechanicsList(ctx context.Context, cfg cliConfig, username string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "mechanics.list", map[string]any{"token": cfg.Token, "username": username}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	path := "/api/mechanics"
	if username != "" {
		path += "?username=" + url.QueryEscape(username)
	}
	return client.request(ctx, http.MethodGet, path, nil, out)
}

func doMechanicsEarnings(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "mechanics.earnings", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/mechanics/earnings", nil, out)
}

func doCarModelsAdd(ctx context.Context, cfg cliConfig, model string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "car_models.add", map[string]any{"token": cfg.Token, "model": model}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/car-models", map[string]any{"model": model}, out)
}

func doCarModelsList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "car_models.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/car-models", nil, out)
}

func doExport(ctx context.Context, cfg cliConfig, dataset string) ([]byte, error) {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		var out struct {
			CSV string `json:"csv"`
		}
		if err := client.call(ctx, "export", map[string]any{"token": cfg.Token, "dataset": dataset}, &out); err != nil {
			return nil, err
		}
		return []byte(out.CSV), nil
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.raw(ctx, http.MethodGet, "/api/export/"+url.PathEscape(dataset))
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
