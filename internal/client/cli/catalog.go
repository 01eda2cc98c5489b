package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/cart"
	"github.com/velora-shop/storefront-backend/internal/client/api"
)

func (r *Runner) runProducts(ctx context.Context) error {
	r.printProducts(r.api.GetProducts(ctx))
	return nil
}

func (r *Runner) runNewArrivals(ctx context.Context) error {
	products := r.api.GetNewArrivals(ctx)
	if len(products) == 0 {
		r.printf("No new arrivals\n")
		return nil
	}
	r.printProducts(products)
	return nil
}

func (r *Runner) printProducts(products []model.Product) {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tSIZES\tSTATUS")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			p.ID, p.Name, p.NewPrice, p.Category, strings.Join(p.Sizes, ","), p.Status)
	}
	tw.Flush()
}

func (r *Runner) runProduct(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: product <id>", ErrUsage)
	}
	p, err := r.api.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}

	r.printf("%s\n", p.Name)
	r.printf("  id:        %s\n", p.ID)
	r.printf("  price:     %.2f", p.NewPrice)
	if p.ComparePrice > p.NewPrice {
		r.printf(" (was %.2f)", p.ComparePrice)
	}
	r.printf("\n  category:  %s\n", p.Category)
	if len(p.Sizes) > 0 {
		r.printf("  sizes:     %s\n", strings.Join(p.Sizes, ", "))
	}
	r.printf("  in stock:  %d\n", p.Quantity)
	r.printf("  status:    %s\n", p.Status)
	if p.Description != "" {
		r.printf("\n%s\n", p.Description)
	}
	return nil
}

// runAdd adds a product to the cart. The size defaults to the product's
// first size; the quantity defaults to 1 and may not exceed the stock.
func (r *Runner) runAdd(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("%w: add <id> [size] [qty]", ErrUsage)
	}

	p, err := r.api.GetProduct(ctx, args[0])
	if err != nil {
		if errors.Is(err, api.ErrProductNotFound) {
			return fmt.Errorf("product %s not found", args[0])
		}
		return err
	}
	if p.Status != model.ProductStatusActive {
		return fmt.Errorf("%s is not available (%s)", p.Name, p.Status)
	}

	size := ""
	if len(p.Sizes) > 0 {
		size = p.Sizes[0]
	}
	if len(args) >= 2 {
		size = args[1]
	}
	if !p.HasSize(size) {
		return fmt.Errorf("%s is not offered in size %q (available: %s)", p.Name, size, strings.Join(p.Sizes, ", "))
	}

	qty := 1
	if len(args) == 3 {
		if qty, err = parsePositive(args[2], "qty"); err != nil {
			return err
		}
	}
	if p.Quantity > 0 && qty > p.Quantity {
		return fmt.Errorf("only %d of %s available", p.Quantity, p.Name)
	}

	r.cart.Add(cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.NewPrice,
		Image:     p.Image,
		Quantity:  qty,
		Size:      size,
	})
	r.printf("Added %d x %s", qty, p.Name)
	if size != "" {
		r.printf(" (%s)", size)
	}
	r.printf("\n")
	return nil
}

func (r *Runner) runRemove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: remove <id>", ErrUsage)
	}
	r.cart.Remove(args[0])
	r.printf("Removed %s\n", args[0])
	return nil
}

// runQuantity sets a line's quantity. The cart stores whatever it is given,
// so the floor of 1 is enforced here.
func (r *Runner) runQuantity(args []string) error {
	var id, size, raw string
	switch len(args) {
	case 2:
		id, raw = args[0], args[1]
	case 3:
		id, size, raw = args[0], args[1], args[2]
	default:
		return fmt.Errorf("%w: qty <id> [size] <qty>", ErrUsage)
	}

	qty, err := parsePositive(raw, "qty")
	if err != nil {
		return err
	}

	found := false
	for _, l := range r.cart.Lines() {
		if l.Key() == (cart.LineKey{ProductID: id, Size: size}) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no cart line for %s size %q", id, size)
	}

	r.cart.UpdateQuantity(id, size, qty)
	r.printCart()
	return nil
}

func (r *Runner) printCart() {
	lines := r.cart.Lines()
	state := "closed"
	if r.cart.IsOpen() {
		state = "open"
	}
	if len(lines) == 0 {
		r.printf("Your cart is empty (drawer %s)\n", state)
		return
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\t%s\n",
			l.ProductID, l.Name, l.Size, l.Quantity, l.Price, l.Subtotal().StringFixed(2))
	}
	tw.Flush()
	r.printf("Items: %d  Total: %.2f  (drawer %s)\n", r.cart.ItemCount(), r.cart.Total(), state)
}
