package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/domain"
)

// ReviewList is the JSON payload of review list.
type ReviewList struct {
	ProductID   string          `json:"productId"`
	Reviews     []domain.Review `json:"reviews"`
	Average     string          `json:"average"`
	Count       int             `json:"count"`
	Eligibility string          `json:"eligibility"`
}

// NewReviewCommand creates the review command group.
func NewReviewCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Read and write product reviews",
		Long: `Read and write product reviews.

Only a signed-in shopper with an order containing the product may review it,
once per product.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <product-id>",
		Short: "List the reviews of a product",
		Args:  cobra.ExactArgs(1),
		RunE:  withShop(rootOpts, listReviews),
	})

	var rating int
	var comment string
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Review a product you bought",
		Args:  cobra.ExactArgs(1),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			r, err := s.shop.SubmitReview(ctx, args[0], rating, comment)
			if err != nil {
				return err
			}
			return s.say(r, "review.submitted", nil)
		}),
	}
	add.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	add.Flags().StringVar(&comment, "comment", "", "review text")
	_ = add.MarkFlagRequired("rating")
	cmd.AddCommand(add)

	return cmd
}

func listReviews(ctx context.Context, s *session, args []string) error {
	p, err := s.shop.Product(args[0])
	if err != nil {
		return err
	}
	avg, count := s.shop.Reviews.Average(p.ID)
	eligibility := s.shop.ReviewEligibility(p.ID)
	data := ReviewList{
		ProductID:   p.ID,
		Reviews:     s.shop.Reviews.ForProduct(p.ID),
		Average:     avg.StringFixed(1),
		Count:       count,
		Eligibility: eligibility.String(),
	}

	t := s.shop.T
	return s.out.Render(data, func(w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf("%s: %s\n", t.T("review.title", nil), p.Name)
		if count == 0 {
			ew.printf("%s\n", t.T("review.none", nil))
		} else {
			ew.printf("%s\n", t.T("review.average", map[string]any{
				"rating": data.Average, "count": count, "noun": t.Noun("review", count),
			}))
		}
		for _, r := range data.Reviews {
			ew.printf("\n%s  %s  %s\n", stars(r.Rating), r.UserName, r.Date.UTC().Format("2006-01-02"))
			ew.printf("  %s\n", r.Comment)
		}
		ew.printf("\n%s\n", t.T(eligibility.MessageKey(), nil))
		return ew.err
	})
}

func stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
