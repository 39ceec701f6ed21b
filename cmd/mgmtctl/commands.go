package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/apimgmt/mgmtrepo/cache"
	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/config"
	"github.com/apimgmt/mgmtrepo/internal/fixtures"
	"github.com/apimgmt/mgmtrepo/purge"
	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every management table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, cfg(), func(ctx context.Context, rt *session) error {
				if err := rt.gdb.AutoMigrate(); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "migrated %s schema\n", rt.gdb.DatabaseType())
				return err
			})
		},
	}
}

func newCheckCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ping the datastore and report basic counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, cfg(), func(ctx context.Context, rt *session) error {
				if err := rt.gdb.Ping(ctx); err != nil {
					return err
				}
				results, err := db.ValidateSchema(rt.gdb.DB())
				if err != nil {
					return err
				}
				invalid := 0
				for _, r := range results {
					if !r.Valid {
						invalid++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.TableName, r.Errors)
					}
				}
				if invalid > 0 {
					return fmt.Errorf("schema check failed: %d of %d tables invalid", invalid, len(results))
				}
				orgs, err := rt.repos.Organizations.Count(ctx)
				if err != nil {
					return err
				}
				envs, err := rt.repos.Environments.FindAll(ctx)
				if err != nil {
					return err
				}
				def, err := rt.repos.Environments.FindByID(ctx, "DEFAULT")
				if err != nil {
					return err
				}
				rt.gdb.LogStats()

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "database: %s ok\n", rt.gdb.DatabaseType())
				fmt.Fprintf(out, "schema: %d tables ok\n", len(results))
				fmt.Fprintf(out, "organizations: %d\n", orgs)
				fmt.Fprintf(out, "environments: %d\n", len(envs))
				fmt.Fprintf(out, "default environment: %t\n", def.IsPresent())
				return nil
			})
		},
	}
}

func newSeedCmd(cfg func() *config.Config) *cobra.Command {
	var truncate bool
	cmd := &cobra.Command{
		Use:   "seed [dataset...]",
		Short: "Load bundled fixture datasets (all of them when none are named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, cfg(), func(ctx context.Context, rt *session) error {
				names := args
				if len(names) == 0 {
					all, err := fixtures.Names(fixtures.Datasets())
					if err != nil {
						return err
					}
					names = all
				}
				err := db.WithRetryableTransaction(ctx, rt.gdb.DB(), db.DefaultRetryConfig(), func(tx *gorm.DB) error {
					if truncate {
						if err := fixtures.Truncate(ctx, tx); err != nil {
							return err
						}
					}
					return fixtures.Load(ctx, tx, fixtures.Datasets(), names...)
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %v\n", names)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&truncate, "truncate", false, "Empty every management table first")
	return cmd
}

type purgeOutput struct {
	Reference string              `yaml:"reference"`
	Total     int                 `yaml:"total"`
	Removed   map[string][]string `yaml:"removed"`
}

func newPurgeCmd(cfg func() *config.Config) *cobra.Command {
	var refType, refID string
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete a parent scope and everything it owns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := repository.ParseReferenceType(refType)
			if err != nil {
				return err
			}
			ref, err := repository.NewReference(refID, t)
			if err != nil {
				return err
			}
			return withSession(cmd, cfg(), func(ctx context.Context, rt *session) error {
				report, err := purge.NewPurger(rt.gdb.DB(), db.DefaultRetryConfig()).Purge(ctx, ref)
				if err != nil {
					return err
				}
				if err := evictPurged(ctx, rt, report); err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(purgeOutput{
					Reference: ref.String(),
					Total:     report.Total(),
					Removed:   report.Removed,
				}); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
	cmd.Flags().StringVar(&refType, "type", "", "Reference type: "+referenceTypeList())
	cmd.Flags().StringVar(&refID, "id", "", "Reference id")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func evictPurged(ctx context.Context, rt *session, report *purge.Report) error {
	for entity, cached := range map[string]string{
		"environments":  "environment",
		"organizations": "organization",
		"licenses":      "license",
	} {
		if err := cache.Evict(ctx, rt.backend, rt.cacheOpts, cached, report.Removed[entity]...); err != nil {
			return fmt.Errorf("purge committed but cache eviction failed: %w", err)
		}
	}
	return nil
}

func referenceTypeList() string {
	types := repository.ReferenceTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "example",
		Short: "Print a configuration file with every default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.WriteExample(cmd.OutOrStdout())
		},
	})
	return cmd
}
