// Package cli implements the shopper commands on top of the API client and
// the persistent cart.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/velora-shop/storefront-backend/internal/cart"
	"github.com/velora-shop/storefront-backend/internal/client/api"
)

// SessionKey is where the session cookies are stored.
const SessionKey = "session"

var ErrUsage = errors.New("invalid usage")

// SessionStore keeps the session cookies between invocations.
// boltstore.Storage implements it.
type SessionStore interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
}

// PasswordReader prompts for a password without echoing it.
type PasswordReader func(prompt string) (string, error)

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Runner struct {
	api          *api.Client
	cart         *cart.Store
	sessions     SessionStore
	out          io.Writer
	readPassword PasswordReader
}

// New builds a runner and restores any saved session into the client.
func New(apiClient *api.Client, store *cart.Store, sessions SessionStore, out io.Writer, readPassword PasswordReader) *Runner {
	r := &Runner{
		api:          apiClient,
		cart:         store,
		sessions:     sessions,
		out:          out,
		readPassword: readPassword,
	}
	r.restoreSession()
	return r
}

// Run executes one command. args[0] is the command name.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		PrintUsage(r.out)
		return ErrUsage
	}
	command, rest := args[0], args[1:]

	var err error
	switch command {
	case "products":
		err = r.runProducts(ctx)
	case "new-arrivals":
		err = r.runNewArrivals(ctx)
	case "product":
		err = r.runProduct(ctx, rest)
	case "add":
		err = r.runAdd(ctx, rest)
	case "remove":
		err = r.runRemove(rest)
	case "qty":
		err = r.runQuantity(rest)
	case "clear":
		r.cart.Clear()
		r.printf("Cart cleared\n")
	case "cart":
		r.printCart()
	case "open":
		r.cart.OpenCart()
		r.printCart()
	case "close":
		r.cart.CloseCart()
		r.printf("Cart closed\n")
	case "login":
		err = r.runLogin(ctx, rest)
	case "logout":
		err = r.runLogout(ctx)
	case "me":
		err = r.runMe(ctx)
	case "analytics":
		err = r.runAnalytics(ctx, rest)
	case "checkout":
		err = r.runCheckout(ctx, rest)
	default:
		PrintUsage(r.out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}

	if errors.Is(err, api.ErrReauthenticate) {
		r.clearSession()
		return fmt.Errorf("%w: run 'shopper login <email>'", err)
	}
	if err == nil {
		r.saveSession()
	}
	return err
}

func (r *Runner) printf(format string, a ...interface{}) {
	fmt.Fprintf(r.out, format, a...)
}

func (r *Runner) restoreSession() {
	if r.sessions == nil {
		return
	}
	data, err := r.sessions.Load(SessionKey)
	if err != nil {
		return
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value})
	}
	r.api.RestoreSession(cookies)
}

func (r *Runner) saveSession() {
	if r.sessions == nil {
		return
	}
	cookies := r.api.SessionCookies()
	if len(cookies) == 0 {
		return
	}
	saved := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return
	}
	if err := r.sessions.Save(SessionKey, data); err != nil {
		r.printf("warning: failed to save session: %v\n", err)
	}
}

func (r *Runner) clearSession() {
	r.api.ClearSession()
	if r.sessions != nil {
		_ = r.sessions.Delete(SessionKey)
	}
}

func parsePositive(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a whole number of 1 or more", ErrUsage, name)
	}
	return n, nil
}

func PrintUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: shopper [flags] <command> [args]

Catalog:
  products                       list the catalog
  new-arrivals                   list new arrivals
  product <id>                   show one product

Cart:
  add <id> [size] [qty]          add a product to the cart
  remove <id>                    remove every size of a product
  qty <id> [size] <qty>          set the quantity of a cart line
  clear                          empty the cart
  cart                           show the cart
  open | close                   open or close the cart drawer
  checkout [flags]               place an order for the cart

Account:
  login <email>                  log in (prompts for the password)
  logout                         end the session
  me                             show the logged in user
  analytics [7d|30d|90d|1y]      show the dashboard summary (staff)
`)
}
