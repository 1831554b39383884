// Package resources names every backend operation. Each service fixes the
// HTTP verb and path template of its operations and forwards the caller's
// parameters to the API client unchanged; there is no business logic here.
package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// Caller executes a normalized request. *apiclient.Client implements it.
type Caller interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

// Operation is one row of the endpoint table.
type Operation struct {
	Name   string
	Method string
	// Path is a template; each {placeholder} is filled from call arguments in order.
	Path string
}

// Operations returns the full endpoint table in declaration order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

var (
	opRegister     = Operation{"auth.register", http.MethodPost, "/Auth/register"}
	opLogin        = Operation{"auth.login", http.MethodPost, "/Auth/login"}
	opLogout       = Operation{"auth.logout", http.MethodPost, "/Auth/logout"}
	opCheckSession = Operation{"auth.check", http.MethodGet, "/Auth/check"}

	opListContacts  = Operation{"contacts.list", http.MethodGet, "/Contacts"}
	opGetContact    = Operation{"contacts.get", http.MethodGet, "/Contacts/{id}"}
	opCreateContact = Operation{"contacts.create", http.MethodPost, "/Contacts"}
	opUpdateContact = Operation{"contacts.update", http.MethodPut, "/Contacts/{id}"}
	opDeleteContact = Operation{"contacts.delete", http.MethodDelete, "/Contacts/{id}"}
	opContactStats  = Operation{"contacts.stats", http.MethodGet, "/Contacts/stats"}

	opListProducts  = Operation{"products.list", http.MethodGet, "/ProductStock"}
	opCreateProduct = Operation{"products.create", http.MethodPost, "/ProductStock"}
	opUpdateProduct = Operation{"products.update", http.MethodPut, "/ProductStock/{id}"}
	opDeleteProduct = Operation{"products.delete", http.MethodDelete, "/ProductStock/{id}"}

	opListTodos  = Operation{"todos.list", http.MethodGet, "/Todo/{userId}"}
	opCreateTodo = Operation{"todos.create", http.MethodPost, "/Todo/{userId}"}
	opUpdateTodo = Operation{"todos.update", http.MethodPut, "/Todo/{id}/{userId}"}
	opDeleteTodo = Operation{"todos.delete", http.MethodDelete, "/Todo/{id}/{userId}"}
	opTodoStats  = Operation{"todos.stats", http.MethodGet, "/Todo/statistics/{userId}"}

	opDashboardMetrics  = Operation{"dashboard.metrics", http.MethodGet, "/Dashboard/metrics"}
	opSalesSeries       = Operation{"dashboard.sales_series", http.MethodGet, "/Dashboard/sales-series"}
	opDashboardAccounts = Operation{"dashboard.accounts", http.MethodGet, "/Dashboard/accounts"}
	opAllAccounts       = Operation{"dashboard.accounts_all", http.MethodGet, "/Dashboard/accounts/all"}

	opCountryCodes = Operation{"country_codes.list", http.MethodGet, "/CountryCodes"}

	operations = []Operation{
		opRegister, opLogin, opLogout, opCheckSession,
		opListContacts, opGetContact, opCreateContact, opUpdateContact, opDeleteContact, opContactStats,
		opListProducts, opCreateProduct, opUpdateProduct, opDeleteProduct,
		opListTodos, opCreateTodo, opUpdateTodo, opDeleteTodo, opTodoStats,
		opDashboardMetrics, opSalesSeries, opDashboardAccounts, opAllAccounts,
		opCountryCodes,
	}
)

// Services bundles every resource module over one caller.
type Services struct {
	Auth         *AuthService
	Contacts     *ContactsService
	Products     *ProductsService
	Todos        *TodosService
	Dashboard    *DashboardService
	CountryCodes *CountryCodesService
}

// New wires all resource modules to c.
func New(c Caller) *Services {
	b := base{caller: c}
	return &Services{
		Auth:         &AuthService{b},
		Contacts:     &ContactsService{b},
		Products:     &ProductsService{b},
		Todos:        &TodosService{b},
		Dashboard:    &DashboardService{b},
		CountryCodes: &CountryCodesService{b},
	}
}

type base struct {
	caller Caller
}

// call expands op.Path with args, appends query and sends body as JSON.
func (b base) call(ctx context.Context, op Operation, query url.Values, body any, args ...string) (*apiclient.Response, error) {
	path, err := expandPath(op.Path, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	raw, err := apiclient.NewJSONBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	return b.caller.Do(ctx, apiclient.Request{
		Endpoint:  path,
		Method:    op.Method,
		Body:      raw,
		Operation: op.Name,
	})
}

// expandPath fills each {placeholder} in tmpl with the next arg, path-escaped.
func expandPath(tmpl string, args ...string) (string, error) {
	var (
		sb   strings.Builder
		used int
	)
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("malformed path template %q", tmpl)
		}
		name := rest[open+1 : open+end]
		if used >= len(args) {
			return "", fmt.Errorf("missing value for {%s}", name)
		}
		value := strings.TrimSpace(args[used])
		if value == "" {
			return "", fmt.Errorf("%s is required", name)
		}
		sb.WriteString(rest[:open])
		sb.WriteString(url.PathEscape(value))
		used++
		rest = rest[open+end+1:]
	}
	if used != len(args) {
		return "", fmt.Errorf("path %q takes %d parameters, got %d", tmpl, used, len(args))
	}
	return sb.String(), nil
}
