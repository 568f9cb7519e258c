package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vetadmin/internal/console"
	"vetadmin/internal/export"
	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

func slotsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Inspect and toggle blocked slots",
	}

	var month string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the blocked days and times of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			screen, err := a.svc.Slots(cmd.Context(), month, "")
			if err != nil {
				return err
			}
			printMonth(cmd.OutOrStdout(), screen)
			return nil
		},
	}
	list.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")

	var date, tm string
	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Block or unblock a whole day or a single time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			form := records.SlotToggleForm{Date: date}
			if tm != "" {
				form.Time = &tm
			}
			res, err := a.svc.ToggleSlot(cmd.Context(), form)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	toggle.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD")
	toggle.Flags().StringVar(&tm, "time", "", "time as HH:MM; omit to toggle the whole day")
	_ = toggle.MarkFlagRequired("date")

	cmd.AddCommand(list, toggle)
	return cmd
}

func printMonth(w io.Writer, screen *console.SlotsScreen) {
	fmt.Fprintf(w, "%d-%02d (policy: %s)\n", screen.Month.Year, int(screen.Month.Month), screen.Policy)

	byDay := make(map[string][]string)
	for _, s := range screen.Blocked {
		if s.Time != nil {
			day := slots.DayKey(s.Date)
			byDay[day] = append(byDay[day], *s.Time)
		}
	}
	blocked := 0
	for _, d := range screen.Month.Days {
		switch {
		case d.WholeDay:
			fmt.Fprintf(w, "  %s  whole day\n", d.Date)
		case d.HasBlock:
			fmt.Fprintf(w, "  %s  %s\n", d.Date, strings.Join(byDay[d.Date], ", "))
		default:
			continue
		}
		blocked++
	}
	if blocked == 0 {
		fmt.Fprintln(w, "  no blocked slots")
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var (
		output string
		f      console.Filters
	)
	cmd := &cobra.Command{
		Use:       "export <screen>",
		Short:     "Export a screen's filtered rows to an .xlsx file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"appointments", "pets", "medical-records", "vaccine-records", "users"},
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, ok := console.ParseExportScreen(args[0])
			if !ok {
				return fmt.Errorf("unknown screen %q", args[0])
			}
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			sheet, err := a.svc.Export(cmd.Context(), screen, f)
			if err != nil {
				return err
			}
			if output == "" {
				output = screen.FileName()
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := export.Write(file, sheet); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(sheet.Rows), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: the screen's export name)")
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "search text")
	cmd.Flags().StringVar(&f.Status, "status", "", "appointment status")
	cmd.Flags().StringVar(&f.Type, "type", "", "pet species")
	cmd.Flags().StringVar(&f.Gender, "gender", "", "pet gender")
	cmd.Flags().StringVar(&f.Neutered, "neutered", "", "neutered: yes or no")
	cmd.Flags().StringVar(&f.State, "state", "", "user state")
	cmd.Flags().StringVar(&f.VaccineType, "vaccine-type", "", "vaccine type id")
	cmd.Flags().Int64Var(&f.PetID, "pet-id", 0, "pet id")
	cmd.Flags().StringVar(&f.Dates.Start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.Dates.End, "end", "", "last day, YYYY-MM-DD")
	return cmd
}

func notifyCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send push notifications",
	}

	event := &cobra.Command{
		Use:   "event <id>",
		Short: "Send the notification of an upcoming event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid event id %q", args[0])
			}
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.NotifyEvent(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	var form records.BroadcastForm
	broadcast := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a custom notification to every device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Broadcast(cmd.Context(), form)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	broadcast.Flags().StringVar(&form.Title, "title", "", "notification title")
	broadcast.Flags().StringVar(&form.Message, "message", "", "notification body")

	cmd.AddCommand(event, broadcast)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
