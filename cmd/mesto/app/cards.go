package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/panyam/mesto"
)

// Output formats for card listings.
const (
	FormatText = "text"
	FormatJSON = "json"
)

func newCardsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List and manage cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			cards, err := c.ListCards(cmd.Context())
			if err != nil {
				return err
			}
			if format == FormatJSON {
				return printJSON(cmd.OutOrStdout(), cards)
			}
			return printCards(cmd.OutOrStdout(), cards)
		},
	}
	cmd.Flags().StringVar(&format, "format", FormatText, "Output format (json or text)")

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME LINK",
		Short: "Create a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			card, err := c.CreateCard(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), card.ID)
			return nil
		},
	})
	cmd.AddCommand(cardCmd("rm CARD_ID", "Delete one of your cards", func(cmd *cobra.Command, id string) (*mesto.Card, error) {
		c, err := newClient(cmd)
		if err != nil {
			return nil, err
		}
		return c.DeleteCard(cmd.Context(), id)
	}))
	cmd.AddCommand(cardCmd("like CARD_ID", "Like a card", func(cmd *cobra.Command, id string) (*mesto.Card, error) {
		c, err := newClient(cmd)
		if err != nil {
			return nil, err
		}
		return c.LikeCard(cmd.Context(), id)
	}))
	cmd.AddCommand(cardCmd("unlike CARD_ID", "Remove your like from a card", func(cmd *cobra.Command, id string) (*mesto.Card, error) {
		c, err := newClient(cmd)
		if err != nil {
			return nil, err
		}
		return c.DislikeCard(cmd.Context(), id)
	}))
	return cmd
}

func cardCmd(use, short string, run func(cmd *cobra.Command, id string) (*mesto.Card, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := run(cmd, args[0])
			if err != nil {
				return err
			}
			return printCards(cmd.OutOrStdout(), []*mesto.Card{card})
		},
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printCards(w io.Writer, cards []*mesto.Card) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, "No cards found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOWNER\tLIKES\tCREATED")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.Name, c.Owner, len(c.Likes), c.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
