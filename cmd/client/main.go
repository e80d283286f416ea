// Interactive shell for the GTACOMPTA sync client. Every collection is
// backed by a model that loads and saves through the sync layer,
// targeting local storage or the remote server depending on the shared
// "use remote" preference.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/odizinne/gtacompta-storage/internal/client/backup"
	"github.com/odizinne/gtacompta-storage/internal/client/remote"
	"github.com/odizinne/gtacompta-storage/internal/client/storage"
	"github.com/odizinne/gtacompta-storage/internal/client/sync"
	"github.com/odizinne/gtacompta-storage/internal/logger"
	"github.com/odizinne/gtacompta-storage/internal/models"
)

var (
	version   string
	buildDate string
)

// defaultSortKeys maps sort columns to the record keys most entities
// share. Unknown keys simply compare as empty values.
var defaultSortKeys = []string{"name", "date", "amount"}

// settingsSource reads credentials fresh from the settings store before
// every request.
type settingsSource struct {
	store storage.Store
}

func (s *settingsSource) Credentials() remote.Credentials {
	settings := storage.LoadSettings(s.store)
	return remote.Credentials{
		BaseURL:        "http://" + settings.Host,
		ServerPassword: settings.ServerPassword,
		Username:       settings.Username,
		UserPassword:   settings.UserPassword,
	}
}

type shell struct {
	store   storage.Store
	local   *storage.Local
	remote  *remote.Client
	syncers map[string]*sync.Syncer
}

func main() {
	var (
		dataDir   string
		useBadger bool
		showVer   bool
	)
	flag.StringVar(&dataDir, "data-dir", "gtacompta-data", "local storage directory")
	flag.BoolVar(&useBadger, "badger", false, "store local data in an embedded badger database")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("GTACOMPTA Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	zl := logger.New()
	if err := zl.Init("warn"); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zapLogger := zl.Log

	var store storage.Store
	var err error
	if useBadger {
		store, err = storage.NewBadgerStore(dataDir)
	} else {
		store, err = storage.NewFileStore(dataDir)
	}
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer store.Close()

	sh := &shell{
		store:   store,
		local:   storage.NewLocal(store, zapLogger),
		remote:  remote.NewClient(&settingsSource{store: store}, zapLogger),
		syncers: map[string]*sync.Syncer{},
	}
	for _, name := range models.KnownCollections {
		model := sync.NewTableModel(name, defaultSortKeys)
		syncer := sync.NewSyncer(model, sh.local, sh.remote, zapLogger)
		syncer.Notify = func(e sync.Event) {
			switch {
			case e.Err != nil && e.Fallback:
				fmt.Printf("\n[%s] remote %s failed, used local copy: %v\n", e.Collection, e.Op, e.Err)
			case e.Err != nil:
				fmt.Printf("\n[%s] %s failed: %v\n", e.Collection, e.Op, e.Err)
			default:
				fmt.Printf("\n[%s] %s done\n", e.Collection, e.Op)
			}
		}
		sh.syncers[name] = syncer
	}

	sh.repl()
}

func (sh *shell) repl() {
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("gtacompta> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			printHelp()
		case "remote":
			sh.cmdRemote(args[1:])
		case "set":
			sh.cmdSet(args[1:])
		case "test":
			sh.cmdTest(ctx)
		case "load":
			sh.withSyncer(args[1:], func(s *sync.Syncer) {
				s.Load(ctx, sh.useRemote())
			})
		case "save":
			sh.withSyncer(args[1:], func(s *sync.Syncer) {
				s.Save(ctx, sh.useRemote())
			})
		case "list":
			sh.withSyncer(args[1:], func(s *sync.Syncer) {
				for i, rec := range s.Model().ToRecords() {
					b, _ := json.Marshal(rec)
					fmt.Printf("%3d  %s\n", i, b)
				}
			})
		case "add":
			sh.cmdAdd(args[1:])
		case "sort":
			sh.cmdSort(args[1:])
		case "export":
			sh.cmdExport(args[1:])
		case "import":
			sh.cmdImport(ctx, args[1:])
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  remote on|off                 toggle remote persistence
  set host|username|password|server-password <value>
  test                          test the remote connection
  load <collection>             load a collection
  save <collection>             save a collection
  list <collection>             print the records of a collection
  add <collection> <json>       append a record
  sort <collection> <column>    sort by column (repeat to flip order)
  export <file> <passphrase>    write a sealed backup
  import <file> <passphrase>    restore a sealed backup
  exit`)
}

func (sh *shell) useRemote() bool {
	return storage.LoadSettings(sh.store).UseRemote
}

func (sh *shell) withSyncer(args []string, fn func(*sync.Syncer)) {
	if len(args) < 1 {
		fmt.Println("Usage: <command> <collection>")
		return
	}
	syncer, ok := sh.syncers[args[0]]
	if !ok {
		fmt.Println("Unknown collection:", args[0])
		return
	}
	fn(syncer)
}

func (sh *shell) cmdRemote(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Println("Usage: remote on|off")
		return
	}
	settings := storage.LoadSettings(sh.store)
	settings.UseRemote = args[0] == "on"
	if err := storage.SaveSettings(sh.store, settings); err != nil {
		fmt.Println("Failed to save settings:", err)
		return
	}
	fmt.Println("Remote persistence:", args[0])
}

func (sh *shell) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: set host|username|password|server-password <value>")
		return
	}
	settings := storage.LoadSettings(sh.store)
	switch args[0] {
	case "host":
		settings.Host = args[1]
	case "username":
		settings.Username = args[1]
	case "password":
		settings.UserPassword = args[1]
	case "server-password":
		settings.ServerPassword = args[1]
	default:
		fmt.Println("Unknown setting:", args[0])
		return
	}
	if err := storage.SaveSettings(sh.store, settings); err != nil {
		fmt.Println("Failed to save settings:", err)
	}
}

func (sh *shell) cmdTest(ctx context.Context) {
	result, err := sh.remote.Test(ctx)
	if err != nil {
		fmt.Println("Connection failed:", err)
		return
	}
	fmt.Printf("%s (User: %s, %s)\n", result.Message, result.Username,
		map[bool]string{true: "read-only", false: "full access"}[result.ReadOnly])
}

func (sh *shell) cmdAdd(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: add <collection> <json>")
		return
	}
	syncer, ok := sh.syncers[args[0]]
	if !ok {
		fmt.Println("Unknown collection:", args[0])
		return
	}
	var rec models.Record
	if err := json.Unmarshal([]byte(strings.Join(args[1:], " ")), &rec); err != nil {
		fmt.Println("Invalid JSON:", err)
		return
	}
	model, ok := syncer.Model().(*sync.TableModel)
	if !ok {
		fmt.Println("Collection does not accept ad-hoc records")
		return
	}
	model.Add(rec)
	fmt.Println("Record added. Use 'save' to persist.")
}

func (sh *shell) cmdSort(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: sort <collection> <column>")
		return
	}
	column, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Println("Column must be a number")
		return
	}
	sh.withSyncer(args[:1], func(s *sync.Syncer) {
		s.Model().SortBy(column)
	})
}

func (sh *shell) cmdExport(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: export <file> <passphrase>")
		return
	}
	doc := backup.NewDocument()
	settings := storage.LoadSettings(sh.store)
	doc.UserSettings["useRemote"] = settings.UseRemote
	doc.UserSettings["host"] = settings.Host
	for name, syncer := range sh.syncers {
		doc.Collections[name] = syncer.Model().ToRecords()
	}
	if err := backup.Export(args[0], doc, args[1]); err != nil {
		fmt.Println("Export failed:", err)
		return
	}
	fmt.Println("Data exported to", args[0])
}

func (sh *shell) cmdImport(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: import <file> <passphrase>")
		return
	}
	doc, err := backup.Import(args[0], args[1])
	if err != nil {
		fmt.Println("Import failed:", err)
		return
	}
	useRemote := sh.useRemote()
	for name, records := range doc.Collections {
		syncer, ok := sh.syncers[name]
		if !ok {
			continue
		}
		syncer.Model().Clear()
		syncer.Model().FromRecords(records)
		syncer.Save(ctx, useRemote)
	}
	fmt.Println("Data imported from", args[0])
}
