package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"promotion-campaigns/internal/config"
	"promotion-campaigns/internal/models"
	"promotion-campaigns/internal/services"
)

const openCampaignsQuery = `
	SELECT c.guild_id, c.id, c.subject_user_id, c.target_role_id, c.created_at,
	       COALESCE(SUM(CASE WHEN m.sentiment = 'APPROVE' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN m.sentiment = 'OPPOSE' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN m.sentiment = 'ABSTAIN' THEN 1 ELSE 0 END), 0)
	FROM promotion_campaigns c
	LEFT JOIN promotion_comments m ON m.campaign_id = c.id
	WHERE c.is_closed = false
	GROUP BY c.guild_id, c.id, c.subject_user_id, c.target_role_id, c.created_at
	ORDER BY c.guild_id, c.id`

func main() {
	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("The report reads PostgreSQL only, DB_DRIVER is %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.GetPostgresURL())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	rows, err := db.Query(openCampaignsQuery)
	if err != nil {
		log.Fatalf("Failed to query open campaigns: %v", err)
	}
	defer rows.Close()

	var (
		currentGuild uint64
		count        int
	)
	for rows.Next() {
		var (
			guildID, subjectID, roleID uint64
			campaignID                 uint
			createdAt                  sql.NullTime
			approve, oppose, abstain   int
		)
		if err := rows.Scan(&guildID, &campaignID, &subjectID, &roleID, &createdAt, &approve, &oppose, &abstain); err != nil {
			log.Fatalf("Failed to read row: %v", err)
		}

		if count == 0 || guildID != currentGuild {
			fmt.Printf("\nGuild %d\n", guildID)
			currentGuild = guildID
		}

		tally := models.Tally{
			models.PromotionSentimentApprove: approve,
			models.PromotionSentimentOppose:  oppose,
			models.PromotionSentimentAbstain: abstain,
		}
		opened := "unknown"
		if createdAt.Valid {
			opened = createdAt.Time.Format("2006-01-02")
		}
		fmt.Printf("  #%d: user %d to role %d, opened %s, %s\n",
			campaignID, subjectID, roleID, opened, services.VotesSummary(tally))
		count++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to iterate rows: %v", err)
	}

	fmt.Printf("\n%d open campaigns\n", count)
}
