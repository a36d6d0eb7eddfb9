package cli

import (
	"fmt"

	"matstock-backend/internal/auth"
	"matstock-backend/internal/models"

	"github.com/spf13/cobra"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Tek bir import döngüsü çalıştırır (hazır filmler, siparişler, bildirimler, alarmlar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.importer().RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "siparişler: %d, hatalı: %d, hazır film: %d, müşteri bildirimi: %d, hazır film bildirimi: %d\n",
				res.Orders, res.Failed, res.ReadyFilms, res.ClientNotified, res.ReadyNotified)
			return nil
		},
	}
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Saklama süresini aşan stok hareketlerini siler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.sweeper().RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "silinen hareket: %d\n", n)
			return nil
		},
	}
}

func newCreateUserCommand() *cobra.Command {
	var (
		username string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Kullanıcı oluşturur veya şifresini sıfırlar",
		Example: `  matstock create-user --username admin --password s3cret --role admin
  matstock create-user --username depo --password 123456`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			user, created, err := auth.UpsertUser(cmd.Context(), a.db, username, password, models.UserRole(role))
			if err != nil {
				return err
			}
			verb := "güncellendi"
			if created {
				verb = "oluşturuldu"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kullanıcı %s %s (rol: %s)\n", user.Username, verb, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "kullanıcı adı (zorunlu)")
	cmd.Flags().StringVar(&password, "password", "", "şifre (zorunlu)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCollector), "rol (admin|collector)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
