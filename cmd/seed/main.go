package main

import (
	"context"
	"log"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/internal/repository"

	"github.com/spf13/viper"
)

var defaultTasks = []model.Task{
	{
		TaskID:         "follow",
		Title:          "Follow @SpinLoot",
		Description:    "Follow our official Twitter account",
		Points:         5,
		MaxCompletions: 1,
		Type:           model.TaskOnce,
		Action:         "Follow",
		Link:           "https://twitter.com/Spin_loot",
		IsActive:       true,
		Category:       model.CategorySocial,
		Order:          1,
	},
	{
		TaskID:         "like_rt",
		Title:          "Like + RT Pinned Post",
		Description:    "Like and retweet our pinned announcement",
		Points:         5,
		MaxCompletions: 1,
		Type:           model.TaskOnce,
		Action:         "Like & RT",
		Link:           "https://x.com/spin_loot/status/1954819766990016658?s=61",
		IsActive:       true,
		Category:       model.CategorySocial,
		Order:          2,
	},
	{
		TaskID:         "comment",
		Title:          "Comment + Tag Friends",
		Description:    "Comment (≥10 words) + #SpinLoot + tag 3 friends",
		Points:         10,
		MaxCompletions: 1,
		Type:           model.TaskOnce,
		Action:         "Comment",
		Link:           "https://x.com/spin_loot/status/1955511995471655025?s=61",
		IsActive:       true,
		Category:       model.CategoryEngagement,
		Order:          3,
	},
	{
		TaskID:         "quote_tweet",
		Title:          "Quote-tweet Pinned Post",
		Description:    "Quote-tweet our pinned post with your thoughts",
		Points:         10,
		MaxCompletions: 5,
		Type:           model.TaskDaily,
		Action:         "Quote Tweet",
		Link:           "https://x.com/spin_loot/status/1955293428092162185?s=61",
		IsActive:       true,
		Category:       model.CategorySocial,
		Order:          4,
	},
	{
		TaskID:         "original_tweet",
		Title:          "Original Tweet",
		Description:    "Create original tweet mentioning @SpinLoot + #SpinLoot",
		Points:         10,
		MaxCompletions: 5,
		Type:           model.TaskDaily,
		Action:         "Tweet",
		Link:           "https://twitter.com/intent/tweet?text=🚀 Excited about @Spin_loot! The future of Web3 gaming is here! #SpinLoot",
		IsActive:       true,
		Category:       model.CategorySocial,
		Order:          5,
	},
	{
		TaskID:         "x_space",
		Title:          "Join X Space",
		Description:    "RT announcement + reply with codeword",
		Points:         10,
		MaxCompletions: 2,
		Type:           model.TaskLimited,
		Action:         "Join Space",
		Link:           "https://twitter.com/Spin_loot",
		IsActive:       true,
		Category:       model.CategorySpecial,
		Order:          6,
	},
	{
		TaskID:         "referral_bonus",
		Title:          "Refer Friends",
		Description:    "Earn 100 points for each friend who joins using your referral code",
		Points:         100,
		MaxCompletions: 999,
		Type:           model.TaskOnce,
		Action:         "Refer Friends",
		IsActive:       true,
		Category:       model.CategoryReferral,
		Order:          7,
	},
	{
		TaskID:         "daily_spinner",
		Title:          "Daily Spinner",
		Description:    "Spin the daily spinner to earn random points (max 3 spins per day)",
		Points:         15,
		MaxCompletions: 3,
		Type:           model.TaskDaily,
		Action:         "Spin",
		IsActive:       true,
		Category:       model.CategorySpecial,
		Order:          8,
	},
}

func main() {
	viper.SetConfigName("config")
	viper.AddConfigPath("./")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	var dbCfg repository.Config
	if err := viper.UnmarshalKey("database", &dbCfg); err != nil {
		log.Fatalf("Failed to unmarshal database config: %v", err)
	}

	repo, err := repository.New(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	tasks := make([]model.Task, len(defaultTasks))
	copy(tasks, defaultTasks)
	for i := range tasks {
		tasks[i].StartDate = now
	}

	if err := repo.SeedTasks(ctx, tasks); err != nil {
		log.Fatalf("Failed to seed tasks: %v", err)
	}

	log.Printf("Seeded %d tasks", len(tasks))
}
