package repository

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/ammiranda/repose/models"
)

// nodeRow is the persisted shape of a node
type nodeRow struct {
	ID             string
	CollectionID   sql.NullString
	ParentID       sql.NullString
	FolderPayload  sql.NullString
	RequestPayload sql.NullString
}

// encodeNode validates the node and maps it to a row with exactly one payload column set
func encodeNode(node *models.Node) (nodeRow, error) {
	if err := node.Validate(); err != nil {
		return nodeRow{}, err
	}
	row := nodeRow{
		ID:           node.ID,
		CollectionID: nullString(node.CollectionID),
		ParentID:     nullString(node.ParentID),
	}
	if folder, ok := node.Folder(); ok {
		data, err := json.Marshal(folder)
		if err != nil {
			return nodeRow{}, fmt.Errorf("error encoding folder %s: %w", node.ID, err)
		}
		row.FolderPayload = sql.NullString{String: string(data), Valid: true}
		return row, nil
	}
	request, _ := node.Request()
	data, err := json.Marshal(request)
	if err != nil {
		return nodeRow{}, fmt.Errorf("error encoding request %s: %w", node.ID, err)
	}
	row.RequestPayload = sql.NullString{String: string(data), Valid: true}
	return row, nil
}

// decodeRow turns a stored row into a node without children
func decodeRow(row nodeRow) (*models.Node, error) {
	var (
		folder  *models.Folder
		request *models.Request
	)
	switch {
	case row.FolderPayload.Valid && row.RequestPayload.Valid:
		return nil, fmt.Errorf("%w: node %s has both folder and request payloads", ErrCorrupt, row.ID)
	case row.FolderPayload.Valid:
		folder = &models.Folder{}
		if err := json.Unmarshal([]byte(row.FolderPayload.String), folder); err != nil {
			return nil, fmt.Errorf("%w: node %s folder payload: %v", ErrCorrupt, row.ID, err)
		}
	case row.RequestPayload.Valid:
		request = &models.Request{}
		if err := json.Unmarshal([]byte(row.RequestPayload.String), request); err != nil {
			return nil, fmt.Errorf("%w: node %s request payload: %v", ErrCorrupt, row.ID, err)
		}
	default:
		return nil, fmt.Errorf("%w: node %s has no payload", ErrCorrupt, row.ID)
	}

	node, err := models.RestoreNode(row.ID, stringPtr(row.CollectionID), stringPtr(row.ParentID), folder, request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return node, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
