package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// GetUserByPhone fetches a customer record by phone number.
func GetUserByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "phone_number = ?", phone).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreateUser returns the customer record for a phone number, creating
// it when absent. Profile fields on the incoming value fill gaps in the
// stored record but never overwrite existing non-empty values, and empty
// incoming fields never erase stored ones.
func FindOrCreateUser(ctx context.Context, db *gorm.DB, incoming domain.User) (*domain.User, error) {
	u, err := GetUserByPhone(ctx, db, incoming.PhoneNumber)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "phone_number"}}, DoNothing: true}).
			Create(&incoming)
		if res.Error != nil {
			return nil, res.Error
		}
		return GetUserByPhone(ctx, db, incoming.PhoneNumber)
	}

	updates := map[string]interface{}{}
	if u.Name == "" && incoming.Name != "" {
		updates["name"] = incoming.Name
	}
	if u.Email == "" && incoming.Email != "" {
		updates["email"] = incoming.Email
	}
	if u.Address == "" && incoming.Address != "" {
		updates["address"] = incoming.Address
	}
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return u, nil
}
