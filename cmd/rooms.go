package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Room related commands",
}

var roomsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured rooms and their controller slots",
	RunE:  runRoomsLs,
}

func init() {
	roomsCmd.AddCommand(roomsLsCmd)
	rootCmd.AddCommand(roomsCmd)
}

func runRoomsLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slots := make(map[string][]string)
	for _, t := range cfg.ResolveTargets() {
		for _, s := range t.Slots {
			slots[s.Room] = append(slots[s.Room],
				fmt.Sprintf("%s pdo=%d", t, s.PDOIndex+1))
		}
	}
	for _, r := range cfg.ResolveRooms() {
		fmt.Printf("%s booking-id=%d preheat=%s preshutdown=%s\n",
			r.Name, r.ChurchToolsID, r.Preheat, r.Preshutdown)
		for _, s := range slots[r.Name] {
			fmt.Printf("  -> %s\n", s)
		}
	}
	return nil
}
