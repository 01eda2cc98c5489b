package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/client/api"
)

func (r *Runner) runLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: login <email>", ErrUsage)
	}
	if r.readPassword == nil {
		return errors.New("no password prompt available")
	}
	password, err := r.readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	user, err := r.api.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	r.printf("Logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

func (r *Runner) runLogout(ctx context.Context) error {
	err := r.api.Logout(ctx)
	r.clearSession()
	if err != nil {
		var apiErr *api.Error
		if !errors.Is(err, api.ErrReauthenticate) && !errors.As(err, &apiErr) {
			return err
		}
	}
	r.printf("Logged out\n")
	return nil
}

func (r *Runner) runMe(ctx context.Context) error {
	user, err := r.api.Me(ctx)
	if err != nil {
		return err
	}
	r.printf("%s <%s>\n  role: %s\n", user.Name, user.Email, user.Role)
	return nil
}

func (r *Runner) runAnalytics(ctx context.Context, args []string) error {
	rangeToken := ""
	if len(args) > 0 {
		rangeToken = args[0]
	}
	report, err := r.api.Analytics(ctx, rangeToken)
	if err != nil {
		return err
	}

	o := report.Overview
	r.printf("Analytics (%s)\n", report.Range)
	r.printf("  revenue:        %.2f (%+d%%)\n", o.TotalRevenue, o.RevenueChange)
	r.printf("  orders:         %d (%+d%%)\n", o.TotalOrders, o.OrdersChange)
	r.printf("  customers:      %d\n", o.TotalCustomers)
	r.printf("  products:       %d\n", o.TotalProducts)
	r.printf("  pending orders: %d\n", o.PendingOrders)
	r.printf("  low stock:      %d\n", o.LowStockProducts)

	if len(report.TopProducts) > 0 {
		r.printf("Top products:\n")
		for _, p := range report.TopProducts {
			r.printf("  %-30s %4d sold  %.2f\n", p.Name, p.Sales, p.Revenue)
		}
	}
	if len(report.OrderStatus) > 0 {
		statuses := make([]string, 0, len(report.OrderStatus))
		for s := range report.OrderStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		parts := make([]string, 0, len(statuses))
		for _, s := range statuses {
			parts = append(parts, fmt.Sprintf("%s=%d", s, report.OrderStatus[s]))
		}
		r.printf("Order status: %s\n", strings.Join(parts, " "))
	}
	return nil
}

// runCheckout sends the cart to the server, which re-prices and re-checks
// every line. The cart is cleared only once the order is stored.
func (r *Runner) runCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var customer model.CustomerInfo
	fs.StringVar(&customer.FirstName, "first", "", "first name")
	fs.StringVar(&customer.LastName, "last", "", "last name")
	fs.StringVar(&customer.Email, "email", "", "email")
	fs.StringVar(&customer.Phone, "phone", "", "phone")
	fs.StringVar(&customer.Country, "country", "", "country")
	fs.StringVar(&customer.State, "state", "", "state")
	fs.StringVar(&customer.City, "city", "", "city")
	fs.StringVar(&customer.Postcode, "postcode", "", "postcode")
	fs.StringVar(&customer.AddressLine1, "address1", "", "address line 1")
	fs.StringVar(&customer.AddressLine2, "address2", "", "address line 2")
	payment := fs.String("payment", string(model.PaymentCOD), "payment method: COD or Online")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	lines := r.cart.Lines()
	if len(lines) == 0 {
		return errors.New("your cart is empty")
	}

	req := api.CheckoutRequest{
		Customer:      customer,
		PaymentMethod: *payment,
		Items:         make([]api.CheckoutItem, 0, len(lines)),
	}
	for _, l := range lines {
		req.Items = append(req.Items, api.CheckoutItem{
			ProductID: l.ProductID,
			Size:      l.Size,
			Quantity:  l.Quantity,
		})
	}

	order, err := r.api.Checkout(ctx, req)
	if err != nil {
		return err
	}

	r.cart.Clear()
	r.cart.CloseCart()
	r.printf("Order %s placed: %.2f (%s, %s)\n", order.OrderNumber, order.TotalAmount, order.PaymentMethod, order.Status)
	return nil
}
