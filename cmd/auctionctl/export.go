package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/export"
	"auctionbook/internal/listing"
	"auctionbook/internal/models"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		filters filterFlags
		format  string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered auction list as a PDF report or Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			var write func(buf *bytes.Buffer, auctions []models.Auction, desc string) error
			now := c.now()
			switch format {
			case "pdf":
				write = func(buf *bytes.Buffer, auctions []models.Auction, desc string) error {
					return export.ReportPDF(buf, auctions, desc, now)
				}
			case "xlsx":
				write = func(buf *bytes.Buffer, auctions []models.Auction, desc string) error {
					return export.ReportXLSX(buf, auctions, desc, now)
				}
			default:
				return apperrors.Validation("unknown export format %q, use pdf or xlsx", format)
			}

			state, err := filters.state()
			if err != nil {
				return err
			}
			auctions, _, err := c.client.FetchAuctions(cmd.Context())
			if err != nil {
				return err
			}
			_, _, flat := listing.View(auctions, state)

			var buf bytes.Buffer
			if err := write(&buf, flat, listing.Describe(state)); err != nil {
				return err
			}
			path := output
			if path == "" {
				path = export.ReportFilename(now, format)
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d auctions to %s\n", len(flat), path)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "pdf or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default auctions_<timestamp>.<format>)")
	return cmd
}

func newReceiptCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "receipt <id>",
		Short: "Print the bill of one auction as a receipt-sized PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auctions, _, err := c.client.FetchAuctions(cmd.Context())
			if err != nil {
				return err
			}
			auction, err := findAuction(auctions, args[0])
			if err != nil {
				return err
			}

			now := c.now()
			var buf bytes.Buffer
			if err := export.ReceiptPDF(&buf, auction, now); err != nil {
				return err
			}
			path := output
			if path == "" {
				path = export.ReceiptFilename(auction, now)
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Receipt for %s written to %s\n", auction.PersonName, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default bill_<name>_<timestamp>.pdf)")
	return cmd
}

// findAuction picks the auction whose ID is ref or starts with it, so the
// short IDs printed by list can be used.
func findAuction(auctions []models.Auction, ref string) (models.Auction, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Auction{}, apperrors.Validation("auction ID is required")
	}
	var matches []models.Auction
	for _, a := range auctions {
		if a.ID == ref {
			return a, nil
		}
		if strings.HasPrefix(a.ID, ref) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return models.Auction{}, apperrors.NotFound("auction %s not found", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Auction{}, apperrors.Validation("auction ID %s is ambiguous, %d auctions match", ref, len(matches))
	}
}

// resolveID expands a short ID into a full one. Full UUIDs are used as given.
func (c *cli) resolveID(ctx context.Context, ref string) (string, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return ref, nil
	}
	auctions, _, err := c.client.FetchAuctions(ctx)
	if err != nil {
		return "", err
	}
	a, err := findAuction(auctions, ref)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}
