package Commands

import (
	"context"
	"fmt"
	"os"

	"Taskflow/Models"
	"Taskflow/Services"

	"github.com/spf13/cobra"
)

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.open(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database\n", e.cfg.DBDriver)
			return nil
		},
	}
}

func newSeedRolesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles [file]",
		Short: "Load role permissions from a json5 file",
		Long: `Load role permissions from a json5 file shaped like

  {
    manager: ["create_project", "edit_project", "create_task"],
    opic: ["edit_task"],
  }

Roles in the file replace their stored permissions. Without an argument
ROLE_SEED_FILE is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := e.cfg.RoleSeedFile
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				return fmt.Errorf("no role file given and ROLE_SEED_FILE is not set")
			}
			core, _, err := e.core(cmd.Context(), false)
			if err != nil {
				return err
			}
			roles, err := seedRoles(cmd.Context(), core, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d roles: %v\n", len(roles), roles)
			return nil
		},
	}
}

func seedRoles(ctx context.Context, core *Services.Core, file string) ([]Models.Role, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open role file: %w", err)
	}
	defer f.Close()
	return Services.NewRoleService(core).Seed(ctx, f)
}

func newRemindCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send deadline reminders once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, _, err := e.core(cmd.Context(), false)
			if err != nil {
				return err
			}
			tasks, err := Services.NewReminderService(core).SendDueReminders(cmd.Context(), e.cfg.ReminderWindow)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminded %d tasks due within %s\n", len(tasks), e.cfg.ReminderWindow)
			return nil
		},
	}
}

func newCreateAdminCommand(e *env) *cobra.Command {
	var name, address, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, _, err := e.core(cmd.Context(), false)
			if err != nil {
				return err
			}
			tokens := Services.NewTokens(e.cfg.JWTSecret, e.cfg.JWTTTL, nil)
			admin, err := Services.NewUserService(core, tokens).Bootstrap(cmd.Context(), name, address, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&address, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
