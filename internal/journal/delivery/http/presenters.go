package http

import (
	"encoding/json"

	"max-notify/internal/journal"
	"max-notify/pkg/response"
)

// --- Request DTOs ---

type listReq struct {
	ConfigEntryID string `form:"config_entry_id"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (r listReq) toOptions() journal.RecentOptions {
	return journal.RecentOptions{
		ConfigEntryID: r.ConfigEntryID,
		Limit:         r.Limit,
	}
}

// --- Response DTOs ---

type eventItem struct {
	ID            string            `json:"id"`
	ConfigEntryID string            `json:"config_entry_id"`
	EventType     string            `json:"event_type"`
	EventID       string            `json:"event_id"`
	UpdateType    string            `json:"update_type"`
	Data          json.RawMessage   `json:"data" swaggertype:"object"`
	ReceivedAt    response.DateTime `json:"received_at" swaggertype:"string"`
}

type listResp struct {
	Items []eventItem `json:"items"`
	Count int         `json:"count"`
}

func (h *handler) newListResp(records []journal.Record) listResp {
	items := make([]eventItem, 0, len(records))
	for _, rec := range records {
		items = append(items, eventItem{
			ID:            rec.ID,
			ConfigEntryID: rec.ConfigEntryID,
			EventType:     rec.EventType,
			EventID:       rec.EventID,
			UpdateType:    rec.UpdateType,
			Data:          rec.Payload,
			ReceivedAt:    response.DateTime(rec.ReceivedAt),
		})
	}
	return listResp{Items: items, Count: len(items)}
}
