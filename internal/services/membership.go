package services

import (
	"gorm.io/gorm"
)

// idSet collects the values of column for rows of model owned by userID whose
// column value is in ids. Used for the is_favorited / is_in_shopping_cart /
// is_subscribed flags.
func idSet(db *gorm.DB, model interface{}, column string, userID uint, ids []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return set, nil
	}
	var found []uint
	if err := db.Model(model).
		Where("user_id = ?", userID).
		Where(column+" IN ?", ids).
		Pluck(column, &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// uniqueIDs drops duplicates, keeping the first occurrence order
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// missingIDs returns the ids of model that do not exist
func missingIDs(db *gorm.DB, model interface{}, ids []uint) ([]uint, error) {
	var found []uint
	if err := db.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
