// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

// Retention scrubbing: bulk predicate deletes over readings and events.
// Each operation removes readings first, then events, and reports the
// number of events removed. The whole matching set is deleted in one
// statement per collection, without batching.

func (s scrubStore) ScrubPushed() (int64, error) {
	err := s.db.Where("pushed > 0").Delete(&Reading{}).Error
	if err != nil {
		return 0, err
	}
	result := s.db.Where("pushed > 0").Delete(&Event{})
	return result.RowsAffected, result.Error
}

func (s scrubStore) ScrubAged(cutoff int64) (int64, error) {
	err := s.db.Where("created < ?", cutoff).Delete(&Reading{}).Error
	if err != nil {
		return 0, err
	}
	result := s.db.Where("created < ?", cutoff).Delete(&Event{})
	return result.RowsAffected, result.Error
}

// ScrubAll removes every reading and event, whatever their state.
// Meant for tests and emergencies, such as a database filling up.
func (s scrubStore) ScrubAll() error {
	err := s.db.Where("1 = 1").Delete(&Reading{}).Error
	if err != nil {
		return err
	}
	return s.db.Where("1 = 1").Delete(&Event{}).Error
}
