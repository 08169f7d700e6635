package dataroom_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dataroom/internal/dataroom"
	"dataroom/internal/testutil"
)

func newTestService(store *testutil.ScriptedStore, identity *testutil.ScriptedTokenProvider) *dataroom.Service {
	return dataroom.NewService(store, identity, testutil.NewStubIDGenerator(), dataroom.NewNopLogger(), 2, time.Minute)
}

func TestService_Upload(t *testing.T) {
	t.Run("refreshes the file list once the batch settles", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		files := []dataroom.LocalFile{
			textFile("a.txt", "alpha"),
			textFile("b.txt", "bravo"),
		}
		batch, err := svc.Upload(context.Background(), files)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		result, err := batch.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if result.Uploaded != 2 {
			t.Errorf("result.Uploaded = %d, want 2", result.Uploaded)
		}

		if got := len(svc.Files()); got != 2 {
			t.Errorf("len(Files()) = %d, want 2", got)
		}
		prefixes := store.ListPrefixes()
		if len(prefixes) != 1 || prefixes[0] != "user-files/alice/" {
			t.Errorf("list prefixes = %v, want one refresh at the root", prefixes)
		}
	})

	t.Run("partial failure still publishes the survivors", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		store.FailPut("b.txt", errors.New("connection reset"))
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		files := []dataroom.LocalFile{
			textFile("a.txt", "alpha"),
			textFile("b.txt", "bravo"),
		}
		batch, err := svc.Upload(context.Background(), files)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		result, err := batch.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if result.Uploaded != 1 || len(result.Failed) != 1 {
			t.Errorf("result = %+v, want one success and one failure", result)
		}

		files2 := svc.Files()
		if len(files2) != 1 {
			t.Fatalf("len(Files()) = %d, want 1", len(files2))
		}
		if !strings.HasSuffix(files2[0].Path, "-a.txt") {
			t.Errorf("published path = %q, want the surviving upload", files2[0].Path)
		}
	})

	t.Run("an empty selection changes nothing", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		batch, err := svc.Upload(context.Background(), nil)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if _, err := batch.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}

		if got := identity.Calls(); got != 0 {
			t.Errorf("identity token resolved %d times, want 0", got)
		}
		if got := len(store.ListPrefixes()); got != 0 {
			t.Errorf("store lists = %d, want 0", got)
		}
		if got := len(svc.Tasks()); got != 0 {
			t.Errorf("published tasks = %d, want 0", got)
		}
	})

	t.Run("captures the folder at submission time", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		store.HoldPuts("")
		defer store.ReleasePuts()
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		if _, err := svc.ChangeFolder(context.Background(), "first/"); err != nil {
			t.Fatalf("ChangeFolder() error = %v", err)
		}
		batch, err := svc.Upload(context.Background(), []dataroom.LocalFile{textFile("doc.txt", "content")})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}

		if _, err := svc.ChangeFolder(context.Background(), "second/"); err != nil {
			t.Fatalf("ChangeFolder() error = %v", err)
		}

		store.ReleasePuts()
		if _, err := batch.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}

		dest := batch.Tasks()[0].Destination
		if !strings.HasPrefix(dest, "user-files/alice/first/") {
			t.Errorf("destination = %q, want it under the folder active at submission", dest)
		}
		// The follow-up refresh runs under the folder active now.
		if got := len(svc.Files()); got != 0 {
			t.Errorf("len(Files()) = %d, want 0 under the new folder", got)
		}
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("removes the file and refreshes", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		store.AddObject("user-files/alice/id-9-old.txt", []byte("old"))
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		if _, err := svc.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if got := len(svc.Files()); got != 1 {
			t.Fatalf("len(Files()) = %d, want 1", got)
		}

		if err := svc.Delete(context.Background(), "user-files/alice/id-9-old.txt"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if got := len(svc.Files()); got != 0 {
			t.Errorf("len(Files()) = %d, want 0", got)
		}
		deletes := store.DeletePaths()
		if len(deletes) != 1 || deletes[0] != "user-files/alice/id-9-old.txt" {
			t.Errorf("delete paths = %v, want the requested path", deletes)
		}
	})

	t.Run("a failed delete leaves the list untouched", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		store.AddObject("user-files/alice/id-9-old.txt", []byte("old"))
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		if _, err := svc.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}

		store.FailDelete(errors.New("access denied"))
		err := svc.Delete(context.Background(), "user-files/alice/id-9-old.txt")
		if !errors.Is(err, dataroom.ErrDeleteFailed) {
			t.Errorf("Delete() error = %v, want ErrDeleteFailed", err)
		}
		if got := len(svc.Files()); got != 1 {
			t.Errorf("len(Files()) = %d, want the list intact", got)
		}
		if got := len(store.ListPrefixes()); got != 1 {
			t.Errorf("store lists = %d, want no refresh after a failed delete", got)
		}
	})
}

func TestService_Folders(t *testing.T) {
	t.Run("changing folders rescopes listings and uploads", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		store.AddObject("user-files/alice/id-1-root.txt", []byte("root"))
		store.AddObject("user-files/alice/invoices/id-2-inv.pdf", []byte("invoice"))
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		records, err := svc.ChangeFolder(context.Background(), "invoices/")
		if err != nil {
			t.Fatalf("ChangeFolder() error = %v", err)
		}
		if svc.Folder() != "invoices/" {
			t.Errorf("Folder() = %q, want %q", svc.Folder(), "invoices/")
		}
		if len(records) != 1 || !strings.Contains(records[0].Path, "invoices/") {
			t.Errorf("records = %v, want only the invoices entry", records)
		}

		batch, err := svc.Upload(context.Background(), []dataroom.LocalFile{textFile("inv2.pdf", "second")})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if _, err := batch.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if dest := batch.Tasks()[0].Destination; !strings.HasPrefix(dest, "user-files/alice/invoices/") {
			t.Errorf("destination = %q, want it under invoices/", dest)
		}
		if got := len(svc.Files()); got != 2 {
			t.Errorf("len(Files()) = %d, want 2 invoices", got)
		}

		all, err := svc.ResetFolder(context.Background())
		if err != nil {
			t.Fatalf("ResetFolder() error = %v", err)
		}
		if svc.Folder() != "" {
			t.Errorf("Folder() = %q, want root", svc.Folder())
		}
		if len(all) != 3 {
			t.Errorf("len(records) = %d, want all 3 files", len(all))
		}
	})

	t.Run("the folder changes even when the refresh fails", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		store.FailList(errors.New("service unavailable"))
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		_, err := svc.ChangeFolder(context.Background(), "archive/")
		if !errors.Is(err, dataroom.ErrListFailed) {
			t.Errorf("ChangeFolder() error = %v, want ErrListFailed", err)
		}
		if svc.Folder() != "archive/" {
			t.Errorf("Folder() = %q, want %q", svc.Folder(), "archive/")
		}
	})

	t.Run("restore positions the folder without touching the store", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)

		svc.RestoreFolder("archive/2024/")
		if svc.Folder() != "archive/2024/" {
			t.Errorf("Folder() = %q, want %q", svc.Folder(), "archive/2024/")
		}
		if got := len(store.ListPrefixes()); got != 0 {
			t.Errorf("store lists = %d, want 0", got)
		}
		if got := identity.Calls(); got != 0 {
			t.Errorf("identity token resolved %d times, want 0", got)
		}
	})
}

func TestService_Tasks(t *testing.T) {
	t.Run("observer and task list forward to the orchestrator", func(t *testing.T) {
		store := testutil.NewScriptedStore()
		identity := testutil.NewScriptedTokenProvider("alice")
		svc := newTestService(store, identity)
		recorder := testutil.NewTaskRecorder()
		svc.SetTaskObserver(recorder.Observe)

		batch, err := svc.Upload(context.Background(), []dataroom.LocalFile{textFile("a.txt", "alpha")})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if _, err := batch.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}

		if len(recorder.Snapshots()) == 0 {
			t.Error("no snapshots delivered to the observer")
		}
		tasks := svc.Tasks()
		if len(tasks) != 1 || tasks[0].Status != dataroom.TaskCompleted {
			t.Errorf("Tasks() = %v, want one completed task", tasks)
		}
	})
}
