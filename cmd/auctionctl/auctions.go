package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/export"
	"auctionbook/internal/listing"
	"auctionbook/internal/models"
	"auctionbook/pkg/client"
)

func newListCmd(c *cli) *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List auctions grouped by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := filters.state()
			if err != nil {
				return err
			}
			auctions, source, err := c.client.FetchAuctions(cmd.Context())
			if err != nil {
				return err
			}

			groups, counts, flat := listing.View(auctions, state)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(flat)
			}
			if source == client.SourceCache {
				fmt.Fprintln(out, "Offline: showing cached auctions")
			}
			printList(out, groups, counts, state)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the filtered auctions as JSON")
	return cmd
}

func printList(out io.Writer, groups []listing.MonthGroup, counts listing.Counts, state listing.FilterState) {
	fmt.Fprintf(out, "All (%d) | Paid (%d) | Unpaid (%d)\n", counts.All, counts.Paid, counts.Unpaid)
	fmt.Fprintln(out, listing.Describe(state))
	if len(groups) == 0 {
		fmt.Fprintln(out, "\nNo auctions found")
		return
	}

	var shown []models.Auction
	for _, g := range groups {
		fmt.Fprintf(out, "\n%s\n", g.Label)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, a := range g.Auctions {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				export.ShortID(a.ID),
				a.AuctionDate.Format(export.DisplayDateLayout),
				a.PersonName,
				a.MobileNumber,
				export.FormatINR(a.TotalAmount),
				export.PaymentLabel(a.IsPaid),
			)
		}
		tw.Flush()
		shown = append(shown, g.Auctions...)
	}
	fmt.Fprintf(out, "\n%s\n", export.SummaryLine(listing.Summarize(shown)))
}

// auctionFlags are the form fields of add and update.
type auctionFlags struct {
	name   string
	mobile string
	date   string
	items  []string
	paid   bool
}

func (f *auctionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.name, "name", "n", "", "person name")
	flags.StringVarP(&f.mobile, "mobile", "m", "", "10 digit mobile number")
	flags.StringVarP(&f.date, "date", "d", "", "auction date as YYYY-MM-DD (default today)")
	flags.StringArrayVarP(&f.items, "item", "i", nil, "item as name:quantity:price, repeatable")
	flags.BoolVar(&f.paid, "paid", false, "record the auction as already paid")
}

func (f *auctionFlags) request(today models.Date) (client.AuctionRequest, error) {
	req := client.AuctionRequest{
		PersonName:   strings.TrimSpace(f.name),
		MobileNumber: strings.TrimSpace(f.mobile),
		AuctionDate:  today,
		IsPaid:       f.paid,
	}
	if strings.TrimSpace(f.date) != "" {
		d, err := models.ParseDate(f.date)
		if err != nil {
			return req, apperrors.ValidationFields("invalid auction date", map[string]string{
				"auctionDate": "date must be formatted as YYYY-MM-DD",
			})
		}
		req.AuctionDate = d
	}
	for i, raw := range f.items {
		item, err := parseItem(raw)
		if err != nil {
			return req, apperrors.ValidationFields("invalid item", map[string]string{
				fmt.Sprintf("items[%d]", i): err.Error(),
			})
		}
		req.Items = append(req.Items, item)
	}
	return req, nil
}

// parseItem reads name:quantity:price. The name may itself contain colons.
func parseItem(raw string) (client.ItemRequest, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return client.ItemRequest{}, errors.New("expected name:quantity:price")
	}
	n := len(parts)
	qty, err := strconv.Atoi(strings.TrimSpace(parts[n-2]))
	if err != nil {
		return client.ItemRequest{}, fmt.Errorf("quantity %q is not a whole number", parts[n-2])
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return client.ItemRequest{}, fmt.Errorf("price %q is not a number", parts[n-1])
	}
	return client.ItemRequest{
		ItemName: strings.TrimSpace(strings.Join(parts[:n-2], ":")),
		Quantity: qty,
		Price:    price,
	}, nil
}

func newAddCmd(c *cli) *cobra.Command {
	var form auctionFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new auction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := form.request(models.DateOf(c.now()))
			if err != nil {
				return err
			}
			auction, err := c.client.CreateAuction(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auction %s saved for %s, total %s\n",
				auction.ID, auction.PersonName, export.FormatINR(auction.TotalAmount))
			return nil
		},
	}
	form.register(cmd)
	return cmd
}

func newUpdateCmd(c *cli) *cobra.Command {
	var form auctionFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an auction and all of its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := form.request(models.DateOf(c.now()))
			if err != nil {
				return err
			}
			id, err := c.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			auction, err := c.client.UpdateAuction(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auction %s updated, total %s\n",
				auction.ID, export.FormatINR(auction.TotalAmount))
			return nil
		},
	}
	form.register(cmd)
	return cmd
}

func newPayCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark an auction as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			auction, err := c.client.MarkPaid(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auction %s for %s marked as paid\n", auction.ID, auction.PersonName)
			return nil
		},
	}
}

func newDeleteCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an auction and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return apperrors.Validation("deleting auction %s cannot be undone; rerun with --yes", args[0])
			}
			id, err := c.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.client.DeleteAuction(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Auction deleted successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}
