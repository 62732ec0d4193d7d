package main

import (
	"github.com/spf13/cobra"

	"github.com/mnohosten/mailbridge/internal/model"
	"github.com/mnohosten/mailbridge/internal/service"
)

func contactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the contact store",
	}

	cmd.AddCommand(contactsAddCmd())
	cmd.AddCommand(contactsListCmd())
	cmd.AddCommand(contactsSearchCmd())
	cmd.AddCommand(contactsGroupCmd())
	cmd.AddCommand(contactsUpdateCmd())
	cmd.AddCommand(contactsDeleteCmd())

	return cmd
}

func contactsAddCmd() *cobra.Command {
	var (
		name  string
		email string
		group string
		phone string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				contact, err := svc.AddContact(name, email, group, phone)
				if err != nil {
					return err
				}
				return printJSON(contact)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "contact name")
	cmd.Flags().StringVar(&email, "email", "", "contact email address")
	cmd.Flags().StringVar(&group, "group", "", "contact group")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone number")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func contactsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				list, err := svc.ListContacts(limit)
				if err != nil {
					return err
				}
				return printJSON(list)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of contacts, 0 for all")

	return cmd
}

func contactsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search contacts by name, email or group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				list, err := svc.SearchContacts(args[0])
				if err != nil {
					return err
				}
				return printJSON(list)
			})
		},
	}
}

func contactsGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "group <group>",
		Short: "List contacts in a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				list, err := svc.ContactsByGroup(args[0])
				if err != nil {
					return err
				}
				return printJSON(list)
			})
		},
	}
}

func contactsUpdateCmd() *cobra.Command {
	var (
		name  string
		email string
		group string
		phone string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update contact fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update model.ContactUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("email") {
				update.Email = &email
			}
			if cmd.Flags().Changed("group") {
				update.Group = &group
			}
			if cmd.Flags().Changed("phone") {
				update.Phone = &phone
			}

			return withService(func(svc *service.Service) error {
				contact, err := svc.UpdateContact(args[0], update)
				if err != nil {
					return err
				}
				return printJSON(contact)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "contact name")
	cmd.Flags().StringVar(&email, "email", "", "contact email address")
	cmd.Flags().StringVar(&group, "group", "", "contact group")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone number")

	return cmd
}

func contactsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				if err := svc.DeleteContact(args[0]); err != nil {
					return err
				}
				return printJSON(map[string]string{"status": "deleted", "id": args[0]})
			})
		},
	}
}
