package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

var (
	categoryFlag string

	sessionID    string
	fullNameFlag string
	locationFlag string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the catalog, optionally filtered by category",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect and edit a visitor cart",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cart",
	Args:  cobra.NoArgs,
	RunE: withCart(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		return nil
	}),
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add one unit of a product",
	Args:  cobra.ExactArgs(1),
	RunE: withCart(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		product, err := a.catalog.Product(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		store.AddToCart(cmd.Context(), product)
		return nil
	}),
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(1),
	RunE: withCart(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		store.RemoveFromCart(cmd.Context(), args[0])
		return nil
	}),
}

var cartSetCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set a line quantity; zero or less removes it",
	Args:  cobra.ExactArgs(2),
	RunE: withCart(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrapf(err, "quantity %q", args[1])
		}
		store.UpdateQuantity(cmd.Context(), args[0], quantity)
		return nil
	}),
}

var cartIncCmd = &cobra.Command{
	Use:   "inc <product-id>",
	Short: "Increase a line by one",
	Args:  cobra.ExactArgs(1),
	RunE: withCart(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		store.IncrementQuantity(cmd.Context(), args[0])
		return nil
	}),
}

var cartDecCmd = &cobra.Command{
	Use:   "dec <product-id>",
	Short: "Decrease a line by one, never below one",
	Args:  cobra.ExactArgs(1),
	RunE: withCart(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		store.DecrementQuantity(cmd.Context(), args[0])
		return nil
	}),
}

var cartLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print the messaging checkout link",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		client := store.UpdateClientInfo(domain.ClientInfoPatch{FullName: &fullNameFlag, Location: &locationFlag})

		link, err := a.checkout.HandoffURL(store.Cart(), client)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	}),
}

func init() {
	catalogCmd.Flags().StringVar(&categoryFlag, "category", domain.AllCategories, "Category to show")

	cartCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "Session id (a new one is created when empty)")
	cartLinkCmd.Flags().StringVar(&fullNameFlag, "name", "", "Customer full name")
	cartLinkCmd.Flags().StringVar(&locationFlag, "location", "", "Delivery location")

	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartRemoveCmd, cartSetCmd, cartIncCmd, cartDecCmd, cartLinkCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	all := a.catalog.LoadProducts(cmd.Context())
	out := cmd.OutOrStdout()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tCATEGORY\tAVAILABILITY")
	for _, p := range domain.VisibleProducts(all, categoryFlag) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.String(), p.Category, p.Availability)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\ncategories: %v\n", domain.AvailableCategories(all))
	return nil
}

type cartAction func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error

// withSession opens the session's cart and runs fn against it.
func withSession(fn cartAction) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if sessionID == "" {
			sessionID = uuid.NewString()
			fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", sessionID)
		}
		store, release := a.sessions.Acquire(cmd.Context(), sessionID)
		defer release()
		return fn(cmd, a, store, args)
	}
}

// withCart is withSession followed by printing the resulting cart.
func withCart(fn cartAction) func(cmd *cobra.Command, args []string) error {
	return withSession(func(cmd *cobra.Command, a *app, store *service.CartStore, args []string) error {
		if err := fn(cmd, a, store, args); err != nil {
			return err
		}
		return printCart(cmd.OutOrStdout(), store.Snapshot())
	})
}

func printCart(out io.Writer, snap service.CartSnapshot) error {
	if len(snap.Items) == 0 {
		_, err := fmt.Fprintln(out, "cart is empty")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE")
	for _, item := range snap.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", item.Product.ID, item.Product.Name, item.Quantity, item.Product.Price.String())
	}
	fmt.Fprintf(w, "\t\t%d\t%s\n", snap.ItemCount, snap.Total.String())
	return w.Flush()
}
