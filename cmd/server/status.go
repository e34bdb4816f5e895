package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blues/ivs/internal/config"
	"github.com/blues/ivs/internal/repository"
)

type statusInfo struct {
	Phase     string `json:"phase"`
	Admin     string `json:"admin"`
	Pool      string `json:"pool"`
	Voters    int    `json:"voters"`
	Proposals int    `json:"proposals"`
	Settled   bool   `json:"settled"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the persisted engine state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		db, err := repository.Open(cfg.Database)
		if err != nil {
			return err
		}
		st, ok, err := repository.NewStore(db).Load(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no engine state in database")
		}

		info := statusInfo{
			Phase:     st.Engine.Phase.String(),
			Admin:     st.Admin.Hex(),
			Pool:      st.Pool.Hex(),
			Voters:    len(st.Engine.Participants),
			Proposals: len(st.Engine.Proposals),
			Settled:   st.Engine.Settlement != nil,
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
