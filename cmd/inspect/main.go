// Command inspect dumps the relationship and message stores of a local
// BadgerDB in table form. Read-only; safe to run against a live instance.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"mentorlink/repositories"
)

func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	prefix := flag.String("prefix", "conn:", "Prefix to scan (conn:, msg:, user:)")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.Bold.Printf("Scanning %q in %s\n\n", *prefix, *dbPath)

	switch *prefix {
	case "msg:":
		err = dumpMessages(db)
	case "conn:":
		err = dumpConnections(db)
	default:
		err = dumpRaw(db, *prefix)
	}
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func dumpConnections(db *badger.DB) error {
	table := newTable([]string{"ID", "Mentor", "Mentee", "State", "Created", "Updated"})
	err := scan(db, "conn:", func(_ string, val []byte) error {
		var record repositories.Connection
		if err := json.Unmarshal(val, &record); err != nil {
			return err
		}
		state := record.State
		if state == "accepted" {
			state = color.Green.Sprint(state)
		} else {
			state = color.Yellow.Sprint(state)
		}
		table.Append([]string{
			record.ID.String(),
			record.MentorID,
			record.MenteeID,
			state,
			record.CreatedAt.Format(time.RFC3339),
			record.UpdatedAt.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func dumpMessages(db *badger.DB) error {
	table := newTable([]string{"ID", "Sender", "Recipient", "Body", "Attachment", "At"})
	err := scan(db, "msg:", func(_ string, val []byte) error {
		var record repositories.DiskMessage
		if err := json.Unmarshal(val, &record); err != nil {
			return err
		}
		attachment := ""
		if record.Attachment != "" {
			attachment = fmt.Sprintf("(%d bytes)", len(record.Attachment))
		}
		table.Append([]string{
			record.ID.String(),
			record.SenderID,
			record.RecipientID,
			record.Body,
			attachment,
			record.At.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func dumpRaw(db *badger.DB, prefix string) error {
	table := newTable([]string{"Key", "Value"})
	err := scan(db, prefix, func(key string, val []byte) error {
		table.Append([]string{key, string(val)})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func scan(db *badger.DB, prefix string, fn func(key string, val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				if err := fn(string(item.Key()), v); err != nil {
					// Log and keep scanning instead of stopping the dump.
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
