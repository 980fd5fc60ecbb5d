package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"promotion-campaigns/internal/models"
)

// TallyComments counts comments per sentiment. Every sentiment is present in the
// result, with 0 for sentiments nobody used.
func TallyComments(comments []models.PromotionComment) models.Tally {
	tally := make(models.Tally, len(models.PromotionSentiments))
	for _, sentiment := range models.PromotionSentiments {
		tally[sentiment] = 0
	}
	for _, comment := range comments {
		tally[comment.Sentiment]++
	}
	return tally
}

// TotalVotes sums the tally over all sentiments, abstentions included
func TotalVotes(tally models.Tally) int {
	total := 0
	for _, count := range tally {
		total += count
	}
	return total
}

// ApprovalPercentage returns approvals as a share of all votes, rounded half to
// even to a whole percent. A tally with no votes yields 0.
func ApprovalPercentage(tally models.Tally) int {
	total := TotalVotes(tally)
	if total == 0 {
		return 0
	}

	approvals := decimal.NewFromInt(int64(tally[models.PromotionSentimentApprove]))
	return int(approvals.
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		RoundBank(0).
		IntPart())
}

// VotesSummary renders "3 Votes (67% approval)"
func VotesSummary(tally models.Tally) string {
	total := TotalVotes(tally)
	label := "Votes"
	if total == 1 {
		label = "Vote"
	}
	return fmt.Sprintf("%d %s (%d%% approval)", total, label, ApprovalPercentage(tally))
}
