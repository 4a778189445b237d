package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/internal/services"
)

const adminPasswordEnv = "STOREFRONT_ADMIN_PASSWORD"

// newAdminCmd creates an admin account without a calling admin, which is
// how the first one comes to exist.
func newAdminCmd(configDir *string) *cobra.Command {
	var req identity.AdminRequest

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(adminPasswordEnv)
			}
			if req.Email == "" || req.Password == "" {
				return errors.New("--email and a password (--password or " + adminPasswordEnv + ") are required")
			}

			mgr, cleanup, err := setup(*configDir, services.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			if err := mgr.AuthService().BootstrapAdmin(context.Background(), req); err != nil {
				return err
			}
			cmd.Printf("Admin %s created.\n", req.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.MobileNo, "mobile", "", "mobile number")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (prefer "+adminPasswordEnv+")")
	return cmd
}
