package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCities = []string{"Berlin", "Moscow", "Almaty", "Tbilisi"}

var seedInterests = []string{
	"chess", "hiking", "movies", "cooking", "running", "photography", "techno", "books",
}

// SeedTestData resets the database and populates it with demo profiles
// and likes.
//
// Behavior:
//  1. Clears existing data in users, likes and matches tables.
//  2. Creates 20 users (10 male, 10 female) spread across a few cities
//     with overlapping interest sets.
//  3. Generates likes between opposite-sex users in the same city, with
//     every 3rd like guaranteed reciprocal so the match detector has
//     work to do on a fresh environment.
//
// Matches are intentionally not seeded: they are produced by the
// detector from the seeded likes.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"matches", "likes", "users"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		sex := SexMale
		if i > 10 {
			sex = SexFemale
		}
		age := 20 + r.Intn(15)

		interests := make([]string, 0, 3)
		for j := 0; j < 3; j++ {
			interests = append(interests, seedInterests[r.Intn(len(seedInterests))])
		}

		user := User{
			TelegramID: int64(100000 + i),
			Name:       fmt.Sprintf("user%d", i),
			Age:        &age,
			Sex:        sex,
			City:       seedCities[i%len(seedCities)],
			Interests:  interests,
			Bio:        fmt.Sprintf("demo profile #%d", i),
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}

	counter := 0
	for _, actor := range users {
		for _, target := range users {
			if actor.UserID == target.UserID || actor.Sex == target.Sex || actor.City != target.City {
				continue
			}
			if r.Intn(100) >= 40 {
				continue
			}

			like := Like{UserID: actor.UserID, LikedUserID: target.UserID}
			if err := database.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}

			// guarantee a reciprocal like every 3rd pair
			if counter%3 == 0 {
				recip := Like{UserID: target.UserID, LikedUserID: actor.UserID}
				if err := database.Clauses(clause.OnConflict{DoNothing: true}).Create(&recip).Error; err != nil {
					return fmt.Errorf("failed to seed reciprocal like: %w", err)
				}
			}
			counter++
		}
	}

	return nil
}
