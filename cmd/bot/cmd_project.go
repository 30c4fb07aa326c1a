package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/storage"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage tenant projects",
	}
	cmd.AddCommand(newProjectUpsertCmd(opts, nil))
	return cmd
}

// stringFlags maps flag names to the patch field they set.
var stringFlags = []struct {
	name  string
	usage string
	field func(*models.ProjectPatch) **string
}{
	{"owner", "owner reference", func(p *models.ProjectPatch) **string { return &p.OwnerID }},
	{"agent-name", "display name of the assistant", func(p *models.ProjectPatch) **string { return &p.AgentName }},
	{"business-name", "business name", func(p *models.ProjectPatch) **string { return &p.BusinessName }},
	{"category", "business category", func(p *models.ProjectPatch) **string { return &p.BusinessCategory }},
	{"location", "business location", func(p *models.ProjectPatch) **string { return &p.BusinessLocation }},
	{"description", "business description", func(p *models.ProjectPatch) **string { return &p.BusinessDescription }},
	{"telegram-token", "Telegram bot token", func(p *models.ProjectPatch) **string { return &p.TelegramBotToken }},
	{"google-token", "Google access token", func(p *models.ProjectPatch) **string { return &p.GoogleAccessToken }},
	{"google-refresh-token", "Google refresh token", func(p *models.ProjectPatch) **string { return &p.GoogleRefreshToken }},
	{"google-location", "Google location resource name (locations/...)", func(p *models.ProjectPatch) **string { return &p.GoogleLocationName }},
}

// newProjectUpsertCmd builds "project upsert". A nil store opens the configured one.
func newProjectUpsertCmd(opts *rootOptions, store storage.ProjectStorage) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create a project or update the given fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := projectPatchFromFlags(cmd)
			if err != nil {
				return err
			}

			if store == nil {
				cfg, logger, err := opts.setup()
				if err != nil {
					return err
				}
				defer logger.Sync()
				s, err := openStorage(cfg.Database, logger)
				if err != nil {
					return err
				}
				defer s.Close()
				store = s
			}

			project, err := store.UpsertProject(context.Background(), id, patch)
			if err != nil {
				return fmt.Errorf("upsert project: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(project)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "project id")
	_ = cmd.MarkFlagRequired("id")
	for _, f := range stringFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().StringSlice("features", nil, "enabled features, comma separated (google_reviews, profile_management, seo_content, follow_ups)")
	cmd.Flags().String("status", "", "draft or active")
	return cmd
}

// projectPatchFromFlags only sets fields whose flags were given.
func projectPatchFromFlags(cmd *cobra.Command) (models.ProjectPatch, error) {
	var patch models.ProjectPatch
	flags := cmd.Flags()

	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return patch, err
		}
		*f.field(&patch) = &v
	}

	if flags.Changed("features") {
		raw, err := flags.GetStringSlice("features")
		if err != nil {
			return patch, err
		}
		features := make([]models.Feature, 0, len(raw))
		for _, name := range raw {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			f, ok := models.ParseFeature(name)
			if !ok {
				return patch, fmt.Errorf("unknown feature %q", name)
			}
			features = append(features, f)
		}
		patch.Features = &features
	}

	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		s := models.ProjectStatus(v)
		if s != models.ProjectDraft && s != models.ProjectActive {
			return patch, fmt.Errorf("status must be draft or active, got %q", v)
		}
		patch.Status = &s
	}
	return patch, nil
}
