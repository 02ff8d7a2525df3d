package redis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ppops/unifistats/internal/storage"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// sessionFields converts a session state to a Redis hash.
func sessionFields(state *storage.SessionState) (map[string]string, error) {
	fields := map[string]string{
		"controller_id": state.ControllerID,
		"site_id":       state.SiteID,
		"site_name":     state.SiteName,
		"action":        state.Action,
		"output_format": state.OutputFormat,
		"theme":         state.Theme,
		"version":       state.Version,
		"cookie":        state.Cookie,
		"last_activity": formatTime(state.LastActivity),
	}

	if state.Controller != nil {
		fields["controller_name"] = state.Controller.Name
		fields["controller_url"] = state.Controller.URL
		fields["controller_user"] = state.Controller.Username
		fields["controller_pass"] = state.Controller.Password
		fields["controller_insecure"] = strconv.FormatBool(state.Controller.Insecure)
		fields["has_controller"] = "1"
	} else {
		fields["has_controller"] = "0"
	}

	if state.Sites != nil {
		sites, err := json.Marshal(state.Sites)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal site list: %w", err)
		}
		fields["sites"] = string(sites)
	}

	return fields, nil
}

// parseSessionState converts a Redis hash to a session state.
func parseSessionState(data map[string]string) (*storage.SessionState, error) {
	lastActivity, err := time.Parse(time.RFC3339Nano, data["last_activity"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_activity: %w", err)
	}

	state := &storage.SessionState{
		ControllerID: data["controller_id"],
		SiteID:       data["site_id"],
		SiteName:     data["site_name"],
		Action:       data["action"],
		OutputFormat: data["output_format"],
		Theme:        data["theme"],
		Version:      data["version"],
		Cookie:       data["cookie"],
		LastActivity: lastActivity,
	}

	if data["has_controller"] == "1" {
		insecure, _ := strconv.ParseBool(data["controller_insecure"])
		state.Controller = &storage.Controller{
			Name:     data["controller_name"],
			URL:      data["controller_url"],
			Username: data["controller_user"],
			Password: data["controller_pass"],
			Insecure: insecure,
		}
	}

	if raw, ok := data["sites"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.Sites); err != nil {
			return nil, fmt.Errorf("failed to parse site list: %w", err)
		}
	}

	return state, nil
}
