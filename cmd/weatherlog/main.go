// weatherlog keeps daily weather records in a text file.
//
//	weatherlog init
//	weatherlog add day=Mon condition=sunny high=21 low=12
//	weatherlog list
//	weatherlog summary
//
// The store is data/store.txt unless WEATHERLOG_STORE says otherwise.
// See package config for all settings.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kjk/weatherlog/backup"
	"github.com/kjk/weatherlog/config"
	"github.com/kjk/weatherlog/export"
	"github.com/kjk/weatherlog/flatstore"
	"github.com/kjk/weatherlog/log"
	"github.com/kjk/weatherlog/record"
	"github.com/kjk/weatherlog/summary"
)

const (
	exitOK    = 0
	exitError = 2
)

const usage = "Usage: init | add key=value... | list | summary | export | backup | restore [snapshot]"

// for tests
var (
	loadConfig = config.Load
	timeNow    = time.Now
)

type app struct {
	cfg    *config.Config
	store  *flatstore.Store
	stdout io.Writer
}

func (a *app) cmdInit(args []string) error {
	if err := a.store.Initialize(); err != nil {
		return err
	}
	log.Event("init", "path", a.store.Path)
	return nil
}

func (a *app) cmdAdd(args []string) error {
	rec, err := record.ParseInput(args)
	if err != nil {
		return err
	}
	if err = a.store.Append(rec); err != nil {
		return err
	}
	vals := []any{}
	for _, f := range record.Fields {
		vals = append(vals, f, rec[f])
	}
	log.Event("add", vals...)
	return nil
}

func (a *app) cmdList(args []string) error {
	records, err := a.store.LoadAll()
	if err != nil {
		return err
	}
	for _, r := range records {
		if _, err = fmt.Fprintln(a.stdout, record.Encode(r)); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) cmdSummary(args []string) error {
	records, err := a.store.LoadAll()
	if err != nil {
		return err
	}
	totals := summary.Compute(records, a.cfg.NumericField)
	if totals.Skipped > 0 {
		log.Verbosef("summary: %d records with non-numeric '%s' counted as 0\n", totals.Skipped, totals.Field)
	}
	_, err = fmt.Fprintln(a.stdout, totals.String())
	return err
}

func (a *app) cmdExport(args []string) error {
	records, err := a.store.LoadAll()
	if err != nil {
		return err
	}
	d, err := export.JSON(records)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(d)
	return err
}

func (a *app) backupClient(ctx context.Context) (*backup.Client, error) {
	b := a.cfg.Backup
	return backup.New(ctx, &backup.Config{
		Endpoint:    b.Endpoint,
		Access:      b.Access,
		Secret:      b.Secret,
		Bucket:      b.Bucket,
		Region:      b.Region,
		Prefix:      b.Prefix,
		Insecure:    b.Insecure,
		Compression: b.Compression,
	})
}

func (a *app) cmdBackup(args []string) error {
	if err := a.cfg.Backup.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backup.Timeout)
	defer cancel()
	c, err := a.backupClient(ctx)
	if err != nil {
		return err
	}
	if !a.store.Exists() {
		log.Logf("backup: '%s' doesn't exist, uploading empty snapshot\n", a.store.Path)
	}
	name, err := c.Upload(ctx, a.store.Path, timeNow())
	if err != nil {
		return err
	}
	log.Event("backup", "name", name)
	_, err = fmt.Fprintln(a.stdout, name)
	return err
}

func (a *app) cmdRestore(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("restore takes at most one snapshot name, got %d", len(args))
	}
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	if err := a.cfg.Backup.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backup.Timeout)
	defer cancel()
	c, err := a.backupClient(ctx)
	if err != nil {
		return err
	}
	name, n, err := c.Restore(ctx, a.store.Path, name)
	if err != nil {
		return err
	}
	log.Event("restore", "name", name, "records", n)
	return nil
}

func (a *app) dispatch(cmd string, args []string) error {
	cmds := map[string]func([]string) error{
		"init":    a.cmdInit,
		"add":     a.cmdAdd,
		"list":    a.cmdList,
		"summary": a.cmdSummary,
		"export":  a.cmdExport,
		"backup":  a.cmdBackup,
		"restore": a.cmdRestore,
	}
	fn, ok := cmds[cmd]
	if !ok {
		return fmt.Errorf("unknown command: %s", cmd)
	}
	timeStart := time.Now()
	err := fn(args)
	dur := time.Since(timeStart)
	log.Verbosef("%s took %s\n", cmd, dur)
	log.EventWithDuration("cmd", dur, "name", cmd, "ok", err == nil)
	return err
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, usage)
		return exitOK
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	log.Output = stderr
	if err = log.Init(&log.Config{Dir: cfg.LogDir, Verbose: cfg.Verbose}); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer log.Close()

	a := &app{
		cfg:    cfg,
		store:  flatstore.New(cfg.StorePath),
		stdout: stdout,
	}
	cmd := args[0]
	err = a.dispatch(cmd, args[1:])
	if log.IfErrf(err, "%s failed with '%s'", cmd, err) {
		// with Verbose the message was already echoed
		if !cfg.Verbose {
			fmt.Fprintln(stderr, err)
		}
		return exitError
	}
	return exitOK
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
