package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
)

func newPropertiesCommand(opts *options) *cobra.Command {
	var (
		q        domain.PropertyQuery
		minPrice string
		maxPrice string
	)

	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if q.MinPrice, err = parsePrice(minPrice); err != nil {
				return fmt.Errorf("--min-price: %w", err)
			}
			if q.MaxPrice, err = parsePrice(maxPrice); err != nil {
				return fmt.Errorf("--max-price: %w", err)
			}

			props, err := opts.app.Market.ListProperties(cmd.Context(), q)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(props))
			for _, p := range props {
				rows = append(rows, propertyRow(p))
			}
			return opts.render(cmd.OutOrStdout(), props, propertyHeader, rows)
		},
	}

	cmd.Flags().StringVar(&q.City, "city", "", "filter by city")
	cmd.Flags().StringVar(&q.Type, "type", "", "filter by property type")
	cmd.Flags().StringVar(&minPrice, "min-price", "", "minimum price")
	cmd.Flags().StringVar(&maxPrice, "max-price", "", "maximum price")
	cmd.Flags().IntVar(&q.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&q.Size, "size", 20, "page size (max 100)")
	return cmd
}

func parsePrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var propertyHeader = []string{"id", "title", "city", "price", "status"}

func propertyRow(p domain.Property) []string {
	price := p.Price.StringFixedBank(2)
	if p.Currency != "" {
		price = p.Currency + " " + price
	}
	return []string{p.ID, p.Title, p.City, price, string(p.Status)}
}

func newPropertyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "property <id>",
		Short: "Show one property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.app.Market.GetProperty(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), p, propertyHeader, [][]string{propertyRow(p)})
		},
	}
}

func newProjectsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List development projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := opts.app.Market.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Name, p.City, p.Status})
			}
			return opts.render(cmd.OutOrStdout(), projects, []string{"id", "name", "city", "status"}, rows)
		},
	}
}

func newPhasesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "phases <project-id>",
		Short: "List the phases of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phases, err := opts.app.Market.ListPhases(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(phases))
			for _, p := range phases {
				from := "-"
				if p.PriceFrom != nil {
					from = p.PriceFrom.StringFixedBank(2)
				}
				rows = append(rows, []string{p.ID, p.Name, strconv.Itoa(p.Units), from})
			}
			return opts.render(cmd.OutOrStdout(), phases, []string{"id", "name", "units", "price from"}, rows)
		},
	}
}

func newInquiryCommand(opts *options) *cobra.Command {
	var in domain.Inquiry

	cmd := &cobra.Command{
		Use:   "inquiry",
		Short: "Send a question about a property to its agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			got, err := opts.app.Market.SubmitInquiry(cmd.Context(), in)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), got)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inquiry %s sent\n", got.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.PropertyID, "property", "", "property ID")
	cmd.Flags().StringVar(&in.Name, "name", "", "your name")
	cmd.Flags().StringVar(&in.Email, "email", "", "reply address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone in E.164 format")
	cmd.Flags().StringVar(&in.Message, "message", "", "question for the agent")
	return cmd
}

func newVisitCommand(opts *options) *cobra.Command {
	var (
		v  domain.Visit
		at string
	)

	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Book a property viewing (requires a consumer login)",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			v.At = t

			got, err := opts.app.Market.ScheduleVisit(cmd.Context(), v)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), got)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "visit %s %s for %s\n", got.ID, got.Status, got.At.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&v.PropertyID, "property", "", "property ID")
	cmd.Flags().StringVar(&at, "at", "", "appointment time (RFC 3339)")
	cmd.Flags().StringVar(&v.Name, "name", "", "your name")
	cmd.Flags().StringVar(&v.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&v.Phone, "phone", "", "phone in E.164 format")
	cmd.Flags().StringVar(&v.Notes, "notes", "", "notes for the agent")
	return cmd
}
