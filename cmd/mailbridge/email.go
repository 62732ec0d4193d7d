package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnohosten/mailbridge/internal/model"
	"github.com/mnohosten/mailbridge/internal/service"
)

func sendCmd() *cobra.Command {
	var (
		to          []string
		cc          []string
		subject     string
		body        string
		htmlBody    string
		attachments []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				req := &model.SendRequest{
					To:       to,
					Cc:       cc,
					Subject:  subject,
					Body:     body,
					HTMLBody: htmlBody,
				}
				for _, path := range attachments {
					req.Attachments = append(req.Attachments, model.Attachment{Path: path})
				}

				messageID, err := svc.SendEmailWithAttachments(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(map[string]string{"message_id": messageID})
			})
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient address (repeatable)")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "cc address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&body, "body", "", "plain text body")
	cmd.Flags().StringVar(&htmlBody, "html", "", "HTML body")
	cmd.Flags().StringSliceVar(&attachments, "attach", nil, "attachment file path (repeatable)")
	cmd.MarkFlagRequired("to")

	return cmd
}

func bulkCmd() *cobra.Command {
	var (
		recipients []string
		subject    string
		body       string
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Send the same email to each recipient independently",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				summary, err := svc.BulkSendEmails(cmd.Context(), recipients, subject, body)
				if err != nil {
					return err
				}
				return printJSON(summary)
			})
		},
	}

	cmd.Flags().StringSliceVar(&recipients, "to", nil, "recipient address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&body, "body", "", "plain text body")
	cmd.MarkFlagRequired("to")

	return cmd
}

func readCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the most recent emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				msgs, err := svc.ReadRecentEmails(cmd.Context(), count)
				if err != nil {
					return err
				}
				return printJSON(msgs)
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "number of emails to read")

	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one email by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				msg, err := svc.GetEmailByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(msg)
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var (
		from    string
		to      string
		subject string
		since   string
		before  string
		seen    bool
		unseen  bool
		page    int
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the inbox with filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := model.EmailFilter{
				From:    from,
				To:      to,
				Subject: subject,
			}

			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w", err)
				}
				filter.Since = &t
			}
			if before != "" {
				t, err := time.Parse("2006-01-02", before)
				if err != nil {
					return fmt.Errorf("invalid --before date: %w", err)
				}
				filter.Before = &t
			}
			if cmd.Flags().Changed("seen") {
				filter.Seen = &seen
			}
			if unseen {
				f := false
				filter.Seen = &f
			}

			return withService(func(svc *service.Service) error {
				result, err := svc.SearchEmails(cmd.Context(), filter, page, limit)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "match sender address")
	cmd.Flags().StringVar(&to, "to", "", "match recipient address")
	cmd.Flags().StringVar(&subject, "subject", "", "match subject substring")
	cmd.Flags().StringVar(&since, "since", "", "received on or after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&before, "before", "", "received before date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&seen, "seen", false, "only read emails")
	cmd.Flags().BoolVar(&unseen, "unseen", false, "only unread emails")
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	cmd.Flags().IntVar(&limit, "limit", 20, "results per page")

	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an email permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				if err := svc.DeleteEmail(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printJSON(map[string]string{"status": "deleted", "id": args[0]})
			})
		},
	}
}

func markCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "mark <id>",
		Short: "Mark an email read, or unread with --unread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				if err := svc.MarkEmailAsRead(cmd.Context(), args[0], !unread); err != nil {
					return err
				}
				return printJSON(map[string]any{"id": args[0], "read": !unread})
			})
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "mark as unread instead")

	return cmd
}

func forwardCmd() *cobra.Command {
	var (
		to   []string
		note string
	)

	cmd := &cobra.Command{
		Use:   "forward <id>",
		Short: "Forward an email to new recipients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				messageID, err := svc.ForwardEmail(cmd.Context(), args[0], to, note)
				if err != nil {
					return err
				}
				return printJSON(map[string]string{"message_id": messageID})
			})
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient address (repeatable)")
	cmd.Flags().StringVar(&note, "note", "", "note prepended to the forwarded body")
	cmd.MarkFlagRequired("to")

	return cmd
}

func replyCmd() *cobra.Command {
	var (
		body     string
		replyAll bool
	)

	cmd := &cobra.Command{
		Use:   "reply <id>",
		Short: "Reply to an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				messageID, err := svc.ReplyToEmail(cmd.Context(), args[0], body, replyAll)
				if err != nil {
					return err
				}
				return printJSON(map[string]string{"message_id": messageID})
			})
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "reply body")
	cmd.Flags().BoolVar(&replyAll, "all", false, "reply to all original recipients")
	cmd.MarkFlagRequired("body")

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show mailbox statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				result, err := svc.GetEmailStatistics(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
}

func draftCmd() *cobra.Command {
	var (
		to       []string
		cc       []string
		subject  string
		body     string
		htmlBody string
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Save a draft to the drafts folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				messageID, err := svc.CreateDraft(cmd.Context(), &model.SendRequest{
					To:       to,
					Cc:       cc,
					Subject:  subject,
					Body:     body,
					HTMLBody: htmlBody,
				})
				if err != nil {
					return err
				}
				return printJSON(map[string]string{"message_id": messageID})
			})
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient address (repeatable)")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "cc address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&body, "body", "", "plain text body")
	cmd.Flags().StringVar(&htmlBody, "html", "", "HTML body")
	cmd.MarkFlagRequired("to")

	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage scheduled emails",
	}

	cmd.AddCommand(scheduleAddCmd())
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleCancelCmd())
	cmd.AddCommand(scheduleDispatchCmd())

	return cmd
}

func scheduleAddCmd() *cobra.Command {
	var (
		to      []string
		subject string
		body    string
		sendAt  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule an email for later delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.Parse(time.RFC3339, sendAt)
			if err != nil {
				return fmt.Errorf("invalid --at time, want RFC3339: %w", err)
			}

			return withService(func(svc *service.Service) error {
				item, err := svc.ScheduleEmail(cmd.Context(), model.SendRequest{
					To:      to,
					Subject: subject,
					Body:    body,
				}, at)
				if err != nil {
					return err
				}
				return printJSON(item)
			})
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&body, "body", "", "plain text body")
	cmd.Flags().StringVar(&sendAt, "at", "", "delivery time (RFC3339)")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("at")

	return cmd
}

func scheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				return printJSON(svc.ListScheduled())
			})
		},
	}
}

func scheduleCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending scheduled email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				if err := svc.CancelScheduled(args[0]); err != nil {
					return err
				}
				return printJSON(map[string]string{"status": "cancelled", "id": args[0]})
			})
		},
	}
}

func scheduleDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Send every scheduled email that is due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *service.Service) error {
				processed, err := svc.DispatchDueScheduled(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(processed)
			})
		},
	}
}
