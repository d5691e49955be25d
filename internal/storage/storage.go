package storage

import "liquidityDesk/internal/model"

// Storage defines a sink for inventory snapshot exports.
type Storage interface {
	PutSnapshotBatch(rows []model.PositionSnapshot) error
}
