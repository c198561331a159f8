package board

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/sadopc/planr/internal/store"
	"github.com/sirupsen/logrus"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// testClock advances one second per reading so timestamps are distinct.
func testClock() func() time.Time {
	t := epoch
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestKV(t *testing.T) *store.Store {
	t.Helper()
	kv, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func openBoard(t *testing.T, kv *store.Store) *Board {
	t.Helper()
	b := Open(kv, quietLog(), WithClock(testClock()), WithIDs(sequentialIDs()))
	if err := b.Err(); err != nil {
		t.Fatalf("open board: %v", err)
	}
	return b
}

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	return openBoard(t, newTestKV(t))
}

func login(t *testing.T, b *Board, email string) Session {
	t.Helper()
	sess, err := b.Users.Login(email, "anything")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return sess
}

// Seed users: 1 alex (admin), 2 sarah, 3 mike, 4 emma.
const (
	alex  = "alex@example.com"
	sarah = "sarah@example.com"
	mike  = "mike@example.com"
)

// ============================================================
// Open
// ============================================================

func TestOpenLoadsSeeds(t *testing.T) {
	b := newTestBoard(t)
	if n := len(b.Users.All()); n != 4 {
		t.Fatalf("expected 4 users, got %d", n)
	}
	if n := len(b.Projects.All()); n != 2 {
		t.Fatalf("expected 2 projects, got %d", n)
	}
	if n := len(b.Tasks.All()); n != 4 {
		t.Fatalf("expected 4 tasks, got %d", n)
	}
	if n := len(b.Roles.All()); n != 3 {
		t.Fatalf("expected 3 roles, got %d", n)
	}
	if b.Users.Current().Active() {
		t.Fatal("nobody should be logged in on a fresh store")
	}
}

func TestOpenLoadFailureSetsErr(t *testing.T) {
	kv, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	kv.Close()

	b := Open(kv, quietLog())
	if b.Err() == nil {
		t.Fatal("expected load error on closed database")
	}
	if len(b.Tasks.All()) != 0 {
		t.Fatal("a failed load must leave the collection empty")
	}
}

// ============================================================
// Users
// ============================================================

func TestLoginLogout(t *testing.T) {
	b := newTestBoard(t)

	if _, err := b.Users.Login("nobody@example.com", "x"); !errors.Is(err, ErrUnknownEmail) {
		t.Fatalf("expected ErrUnknownEmail, got %v", err)
	}

	sess := login(t, b, sarah)
	if sess.UserID() != "2" || sess.IsAdmin() {
		t.Fatalf("unexpected session %+v", sess.User)
	}

	// Session survives a reopen.
	b2 := openBoard(t, b.Users.kv)
	if b2.Users.Current().UserID() != "2" {
		t.Fatal("active user should be persisted")
	}

	if err := b.Users.Logout(); err != nil {
		t.Fatal(err)
	}
	if b.Users.Current().Active() {
		t.Fatal("logout should clear the session")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	b := newTestBoard(t)
	before := b.Users.All()

	_, err := b.Users.Register(UserDraft{Name: "Alex Again", Email: alex})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if !slices.Equal(userIDs(before), userIDs(b.Users.All())) {
		t.Fatal("failed registration must leave users unchanged")
	}
}

func TestRegister(t *testing.T) {
	b := newTestBoard(t)
	u, err := b.Users.Register(UserDraft{Name: "Nina", Email: "nina@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.Role != store.RoleUser || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, ok := b.Users.ByEmail("nina@example.com"); !ok {
		t.Fatal("registered user not found")
	}
	login(t, b, "nina@example.com")
}

func TestUpdateActiveUserRefreshesSession(t *testing.T) {
	b := newTestBoard(t)
	login(t, b, sarah)

	u, _ := b.Users.Get("2")
	u.Name = "Sarah W."
	if err := b.Users.Update(u); err != nil {
		t.Fatal(err)
	}
	if got := b.Users.Current().User.Name; got != "Sarah W." {
		t.Fatalf("session name = %q", got)
	}
}

func TestDeleteActiveUserLogsOut(t *testing.T) {
	b := newTestBoard(t)
	login(t, b, mike)

	if err := b.Users.Delete("3"); err != nil {
		t.Fatal(err)
	}
	if b.Users.Current().Active() {
		t.Fatal("deleting the active user should log out")
	}
	if _, ok := b.Users.Get("3"); ok {
		t.Fatal("user 3 should be gone")
	}
	if err := b.Users.Delete("missing"); err != nil {
		t.Fatalf("deleting a missing user is a no-op, got %v", err)
	}
}

func userIDs(users []store.User) []string {
	var ids []string
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// ============================================================
// Projects and scoping
// ============================================================

func projectIDs(projects []store.Project) []string {
	var ids []string
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestScopeProjects(t *testing.T) {
	projects := []store.Project{
		{ID: "a", CreatedBy: "u1"},
		{ID: "b", CreatedBy: "u2", AssignedTo: []string{"u1"}},
		{ID: "c", CreatedBy: "u2", AssignedTo: []string{"u3"}},
	}
	tests := []struct {
		name string
		user *store.User
		want []string
	}{
		{"creator or assignee", &store.User{ID: "u1", Role: store.RoleUser}, []string{"a", "b"}},
		{"assignee only", &store.User{ID: "u3", Role: store.RoleUser}, []string{"c"}},
		{"unrelated", &store.User{ID: "u9", Role: store.RoleUser}, nil},
		{"admin sees all", &store.User{ID: "u9", Role: store.RoleAdmin}, []string{"a", "b", "c"}},
		{"no session", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := projectIDs(ScopeProjects(projects, tt.user))
			if !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScopedViewSeed(t *testing.T) {
	b := newTestBoard(t)
	if got := projectIDs(b.Projects.ScopedView(login(t, b, mike))); !slices.Equal(got, []string{"2"}) {
		t.Fatalf("mike sees %v", got)
	}
	if got := b.Projects.ScopedView(login(t, b, alex)); len(got) != 2 {
		t.Fatalf("admin sees %d projects", len(got))
	}
	if got := b.Projects.ScopedView(Session{}); got != nil {
		t.Fatal("no session should see nothing")
	}
}

func TestCreateProject(t *testing.T) {
	b := newTestBoard(t)
	if _, err := b.Projects.Create(Session{}, ProjectDraft{Name: "x"}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	sess := login(t, b, mike)
	p, err := b.Projects.Create(sess, ProjectDraft{Name: "Infra"})
	if err != nil {
		t.Fatal(err)
	}
	if p.CreatedBy != "3" || p.Status != store.ProjectActive {
		t.Fatalf("unexpected project %+v", p)
	}
	if !slices.Contains(projectIDs(b.Projects.ScopedView(sess)), p.ID) {
		t.Fatal("creator should see the new project")
	}
}

func TestUpdateProjectStampsUpdatedAt(t *testing.T) {
	b := newTestBoard(t)
	p, _ := b.Projects.Get("1")
	before := p.UpdatedAt
	p.Name = "Website v2"
	if err := b.Projects.Update(p); err != nil {
		t.Fatal(err)
	}
	got, _ := b.Projects.Get("1")
	if got.Name != "Website v2" || !got.UpdatedAt.After(before) {
		t.Fatalf("unexpected project after update %+v", got)
	}
	if err := b.Projects.Update(store.Project{ID: "missing"}); err != nil {
		t.Fatalf("updating a missing project is a no-op, got %v", err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	b := newTestBoard(t)
	for _, task := range b.Tasks.ForProject("1") {
		if _, err := b.Tasks.AddComment(task.ID, "2", "note"); err != nil {
			t.Fatal(err)
		}
	}
	if len(b.Tasks.ForProject("1")) == 0 {
		t.Fatal("seed project 1 should have tasks")
	}

	if err := b.Projects.Delete("1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Projects.Get("1"); ok {
		t.Fatal("project should be gone")
	}
	if n := len(b.Tasks.ForProject("1")); n != 0 {
		t.Fatalf("expected project tasks removed, %d remain", n)
	}
	for _, task := range b.Tasks.All() {
		if task.ProjectID == "1" {
			t.Fatalf("orphaned task %s", task.ID)
		}
	}
	if len(b.Tasks.ForProject("2")) == 0 {
		t.Fatal("other projects' tasks must survive")
	}

	// The cascade is persisted.
	b2 := openBoard(t, b.Tasks.kv)
	if n := len(b2.Tasks.ForProject("1")); n != 0 {
		t.Fatalf("cascade not persisted, %d tasks remain", n)
	}
	if n := len(b2.Tasks.comments); n != 0 {
		t.Fatalf("expected no comments after cascade, got %d", n)
	}
}

func TestProjectRoles(t *testing.T) {
	b := newTestBoard(t)

	if err := b.Projects.AssignRole("2", "4", "wizard", "1"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := b.Projects.AssignRole("2", "4", store.ProjectRoleQA, "1"); err != nil {
		t.Fatal(err)
	}
	if err := b.Projects.AssignRole("2", "4", store.ProjectRoleDesigner, "1"); err != nil {
		t.Fatal(err)
	}
	p, _ := b.Projects.Get("2")
	role, ok := RoleOf(p, "4")
	if !ok || role != store.ProjectRoleDesigner {
		t.Fatalf("role = %q, %v", role, ok)
	}
	n := 0
	for _, r := range p.RoleAssignments {
		if r.UserID == "4" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("reassigning should replace, got %d assignments", n)
	}

	if err := b.Projects.RemoveRole("2", "4"); err != nil {
		t.Fatal(err)
	}
	p, _ = b.Projects.Get("2")
	if _, ok := RoleOf(p, "4"); ok {
		t.Fatal("role should be removed")
	}
}

// ============================================================
// Tasks and comments
// ============================================================

func TestCreateTaskRequiresSession(t *testing.T) {
	b := newTestBoard(t)
	if _, err := b.Tasks.Create(Session{}, TaskDraft{Title: "x"}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)
	task, err := b.Tasks.Create(sess, TaskDraft{Title: "Write docs"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != store.StatusTodo || task.Priority != store.PriorityMedium {
		t.Fatalf("unexpected defaults %s/%s", task.Status, task.Priority)
	}
	if task.CreatedBy != "1" || !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Fatalf("unexpected task %+v", task)
	}
	if _, ok := b.Tasks.Get(task.ID); !ok {
		t.Fatal("task not stored")
	}
}

func TestUpdateTaskStampsUpdatedAt(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)
	task, _ := b.Tasks.Get("1")
	before := task.UpdatedAt

	if err := b.Tasks.SetStatus(sess, "1", store.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	got, _ := b.Tasks.Get("1")
	if got.Status != store.StatusCompleted || !got.UpdatedAt.After(before) {
		t.Fatalf("unexpected task %+v", got)
	}
	if err := b.Tasks.Update(sess, store.Task{ID: "missing"}); err != nil {
		t.Fatalf("updating a missing task is a no-op, got %v", err)
	}
}

func TestDeleteTaskRemovesComments(t *testing.T) {
	b := newTestBoard(t)
	b.Tasks.AddComment("1", "1", "first")
	b.Tasks.AddComment("1", "2", "second")
	b.Tasks.AddComment("2", "1", "other task")

	var deleted []TaskDeleted
	b.Bus().Subscribe(func(ev Event) error {
		if e, ok := ev.(TaskDeleted); ok {
			deleted = append(deleted, e)
		}
		return nil
	})

	if err := b.Tasks.Delete("1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Tasks.Get("1"); ok {
		t.Fatal("task should be gone")
	}
	if n := len(b.Tasks.CommentsFor("1")); n != 0 {
		t.Fatalf("expected no orphaned comments, got %d", n)
	}
	if n := len(b.Tasks.CommentsFor("2")); n != 1 {
		t.Fatalf("other task's comments must survive, got %d", n)
	}
	if len(deleted) != 1 || deleted[0].Comments != 2 {
		t.Fatalf("unexpected TaskDeleted events %+v", deleted)
	}
}

func TestCommentsInInsertionOrder(t *testing.T) {
	b := newTestBoard(t)
	for _, body := range []string{"a", "b", "c"} {
		if _, err := b.Tasks.AddComment("3", "3", body); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	for _, c := range b.Tasks.CommentsFor("3") {
		got = append(got, c.Content)
	}
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("comments = %v", got)
	}
}

// ============================================================
// Notifications
// ============================================================

func notificationsFor(b *Board, userID string) []store.Notification {
	var out []store.Notification
	for _, n := range b.Notifications.all {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func TestCreateTaskNotifiesEachAssignee(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)

	task, err := b.Tasks.Create(sess, TaskDraft{Title: "Ship it", AssignedTo: []string{"2", "3", ""}})
	if err != nil {
		t.Fatal(err)
	}
	all := b.Notifications.all
	if len(all) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(all))
	}
	if all[0].ID == all[1].ID {
		t.Fatal("notification ids must be distinct")
	}
	for i, uid := range []string{"2", "3"} {
		n := all[i]
		if n.UserID != uid || n.Type != store.NotifyTaskAssigned || n.Read {
			t.Fatalf("unexpected notification %+v", n)
		}
		if n.Message != `You have been assigned to "Ship it"` {
			t.Fatalf("message = %q", n.Message)
		}
		if n.Data == nil || n.Data.TaskID != task.ID {
			t.Fatalf("data = %+v", n.Data)
		}
	}
}

func TestUpdateTaskNotifiesEditorOnlyWhenAssigned(t *testing.T) {
	b := newTestBoard(t)

	// Seed task 3 is assigned to mike only.
	sess := login(t, b, alex)
	task, _ := b.Tasks.Get("3")
	task.Title = "Edited by admin"
	b.Tasks.Update(sess, task)
	if n := len(b.Notifications.all); n != 0 {
		t.Fatalf("non-assignee editor should not be notified, got %d", n)
	}

	sess = login(t, b, mike)
	b.Tasks.Update(sess, task)
	got := notificationsFor(b, "3")
	if len(got) != 1 || got[0].Type != store.NotifyTaskUpdated {
		t.Fatalf("expected one task_updated for the editor, got %+v", got)
	}
	if got[0].Message != `Task "Edited by admin" has been updated` {
		t.Fatalf("message = %q", got[0].Message)
	}
}

func TestCommentNotifiesAssigneesExceptAuthor(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)
	task, _ := b.Tasks.Create(sess, TaskDraft{Title: "Review", AssignedTo: []string{"1", "2", "3"}})
	before := len(b.Notifications.all)

	c, err := b.Tasks.AddComment(task.ID, "1", "looks good")
	if err != nil {
		t.Fatal(err)
	}
	added := b.Notifications.all[before:]
	var got []string
	for _, n := range added {
		if n.Type != store.NotifyCommentAdded || n.Data.CommentID != c.ID {
			t.Fatalf("unexpected notification %+v", n)
		}
		got = append(got, n.UserID)
	}
	if !slices.Equal(got, []string{"2", "3"}) {
		t.Fatalf("comment notified %v, want [2 3]", got)
	}
}

func TestCommentOnUnknownTask(t *testing.T) {
	b := newTestBoard(t)
	if _, err := b.Tasks.AddComment("missing", "1", "hello"); err != nil {
		t.Fatal(err)
	}
	if len(b.Tasks.CommentsFor("missing")) != 1 {
		t.Fatal("comment should still be stored")
	}
	if len(b.Notifications.all) != 0 {
		t.Fatal("no notifications for an unknown task")
	}
}

func TestActiveViewFollowsSession(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)
	b.Tasks.Create(sess, TaskDraft{Title: "one", AssignedTo: []string{"1", "2"}})
	b.Tasks.Create(sess, TaskDraft{Title: "two", AssignedTo: []string{"1"}})

	active := b.Notifications.Active()
	if len(active) != 2 {
		t.Fatalf("alex should see 2 notifications, got %d", len(active))
	}
	if active[0].Message != `You have been assigned to "two"` {
		t.Fatalf("expected newest first, got %q", active[0].Message)
	}

	login(t, b, sarah)
	active = b.Notifications.Active()
	if len(active) != 1 || active[0].UserID != "2" {
		t.Fatalf("sarah should see only her notification, got %+v", active)
	}

	b.Users.Logout()
	if len(b.Notifications.Active()) != 0 {
		t.Fatal("no session should see no notifications")
	}
}

func TestMarkReadKeepsOtherUsers(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)
	b.Tasks.Create(sess, TaskDraft{Title: "shared", AssignedTo: []string{"1", "2"}})

	mine := b.Notifications.UnreadFor(sess)
	if len(mine) != 1 {
		t.Fatalf("expected 1 unread, got %d", len(mine))
	}
	if err := b.Notifications.MarkRead(mine[0].ID); err != nil {
		t.Fatal(err)
	}
	if b.Notifications.UnreadCount(sess) != 0 {
		t.Fatal("notification should be read")
	}

	// Sarah's notification is untouched and still persisted.
	b2 := openBoard(t, b.Notifications.kv)
	if cur := b2.Users.Current(); cur.UserID() != "1" {
		t.Fatalf("expected alex still logged in, got %q", cur.UserID())
	}
	if n := b2.Notifications.UnreadCount(login(t, b2, sarah)); n != 1 {
		t.Fatalf("sarah should keep her unread notification, got %d", n)
	}

	if err := b.Notifications.MarkRead("missing"); err != nil {
		t.Fatalf("marking a missing notification is a no-op, got %v", err)
	}
}

// ============================================================
// Roles
// ============================================================

func TestRoleCRUD(t *testing.T) {
	b := newTestBoard(t)
	r, err := b.Roles.Create(RoleDraft{Name: "Auditor", Permissions: []string{"reports.view"}})
	if err != nil {
		t.Fatal(err)
	}
	r.Description = "read only"
	if err := b.Roles.Update(r); err != nil {
		t.Fatal(err)
	}
	got, ok := b.Roles.Get(r.ID)
	if !ok || got.Description != "read only" || !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("unexpected role %+v", got)
	}
	if err := b.Roles.Delete(r.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Roles.Get(r.ID); ok {
		t.Fatal("role should be gone")
	}
}

// ============================================================
// Bus
// ============================================================

func TestBusRecoversPanics(t *testing.T) {
	bus := NewBus(quietLog())
	var after bool
	bus.Subscribe(func(Event) error { panic("boom") })
	bus.Subscribe(func(Event) error { after = true; return nil })

	err := bus.Publish(ProjectDeleted{ProjectID: "x"})
	if err == nil {
		t.Fatal("expected the panic to surface as an error")
	}
	if !after {
		t.Fatal("later handlers must still run")
	}
}

func TestBusJoinsErrors(t *testing.T) {
	bus := NewBus(quietLog())
	errA := errors.New("a")
	errB := errors.New("b")
	bus.Subscribe(func(Event) error { return errA })
	bus.Subscribe(func(Event) error { return errB })

	err := bus.Publish(TaskDeleted{TaskID: "1"})
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both errors, got %v", err)
	}
}

// ============================================================
// Returned copies
// ============================================================

func TestReadersReturnCopies(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)

	task, _ := b.Tasks.Get("2")
	task.AssignedTo[0] = "99"
	task.Tags = append(task.Tags[:0], "mutated")
	*task.StartDate = task.StartDate.AddDate(1, 0, 0)

	b.Tasks.All()[1].AssignedTo[0] = "99"
	b.Tasks.ForProject("1")[1].AssignedTo[0] = "99"
	for _, v := range b.Tasks.FilteredView(DefaultFilters()) {
		if len(v.AssignedTo) > 0 {
			v.AssignedTo[0] = "99"
		}
	}

	p, _ := b.Projects.Get("1")
	p.AssignedTo[0] = "99"
	p.RoleAssignments[0].Role = store.ProjectRoleQA
	b.Projects.All()[0].AssignedTo[1] = "99"
	b.Projects.ScopedView(sess)[0].RoleAssignments[0].UserID = "99"

	stored, err := store.Load[store.Task](b.Tasks.kv, store.KindTasks)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range stored {
		got, _ := b.Tasks.Get(want.ID)
		if slices.Contains(got.AssignedTo, "99") || slices.Contains(got.Tags, "mutated") {
			t.Fatalf("task %s changed through a returned copy: %+v", got.ID, got)
		}
		if !slices.Equal(got.AssignedTo, want.AssignedTo) {
			t.Fatalf("task %s: got %v, stored %v", got.ID, got.AssignedTo, want.AssignedTo)
		}
	}
	got, _ := b.Tasks.Get("2")
	if !got.StartDate.Equal(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start date changed to %v", got.StartDate)
	}

	proj, _ := b.Projects.Get("1")
	if !slices.Equal(proj.AssignedTo, []string{"1", "2", "4"}) {
		t.Fatalf("project assignees changed: %v", proj.AssignedTo)
	}
	for _, r := range proj.RoleAssignments {
		if r.UserID == "99" || r.Role == store.ProjectRoleQA {
			t.Fatalf("project roles changed: %+v", proj.RoleAssignments)
		}
	}
}

func TestWritersCopyInput(t *testing.T) {
	b := newTestBoard(t)
	sess := login(t, b, alex)

	assignees := []string{"2"}
	task, err := b.Tasks.Create(sess, TaskDraft{Title: "x", AssignedTo: assignees})
	if err != nil {
		t.Fatal(err)
	}
	assignees[0] = "99"
	task.AssignedTo[0] = "98"

	edit, _ := b.Tasks.Get(task.ID)
	edit.Tags = []string{"a"}
	if err := b.Tasks.Update(sess, edit); err != nil {
		t.Fatal(err)
	}
	edit.Tags[0] = "b"

	got, _ := b.Tasks.Get(task.ID)
	if !slices.Equal(got.AssignedTo, []string{"2"}) || !slices.Equal(got.Tags, []string{"a"}) {
		t.Fatalf("stored task aliases caller memory: %+v", got)
	}

	perms := []string{"read"}
	role, err := b.Roles.Create(RoleDraft{Name: "Viewer", Permissions: perms})
	if err != nil {
		t.Fatal(err)
	}
	perms[0] = "write"
	role.Permissions[0] = "admin"
	if r, _ := b.Roles.Get(role.ID); !slices.Equal(r.Permissions, []string{"read"}) {
		t.Fatalf("stored role aliases caller memory: %v", r.Permissions)
	}
}

// ============================================================
// Writes after a failed load
// ============================================================

func TestMutationsRefusedAfterLoadFailure(t *testing.T) {
	kv := newTestKV(t)
	b := openBoard(t, kv)
	sess := login(t, b, alex)

	loadErr := errors.New("disk read failed")
	b.Tasks.err = loadErr
	b.Projects.err = loadErr
	b.Roles.err = loadErr
	b.Users.err = loadErr
	b.Notifications.err = loadErr

	if _, err := b.Tasks.Create(sess, TaskDraft{Title: "x"}); !errors.Is(err, ErrNotLoaded) || !errors.Is(err, loadErr) {
		t.Fatalf("create task: %v", err)
	}
	task, _ := b.Tasks.Get("1")
	task.Title = "changed"
	if err := b.Tasks.Update(sess, task); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("update task: %v", err)
	}
	if err := b.Tasks.Delete("1"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := b.Tasks.AddComment("1", "1", "hi"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := b.Projects.Create(sess, ProjectDraft{Name: "x"}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("create project: %v", err)
	}
	if err := b.Projects.Delete("1"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("delete project: %v", err)
	}
	if _, err := b.Roles.Create(RoleDraft{Name: "x"}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("create role: %v", err)
	}
	if _, err := b.Users.Register(UserDraft{Name: "x", Email: "x@example.com"}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("register: %v", err)
	}
	if err := b.Users.Delete("2"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("delete user: %v", err)
	}
	if err := b.Notifications.MarkRead("n1"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("mark read: %v", err)
	}

	tasks, err := store.Load[store.Task](kv, store.KindTasks)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 4 || tasks[0].Title == "changed" {
		t.Fatalf("persisted tasks were overwritten: %d tasks", len(tasks))
	}
	projects, err := store.Load[store.Project](kv, store.KindProjects)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 {
		t.Fatalf("persisted projects were overwritten: %d", len(projects))
	}
}

func TestClosedDatabaseRefusesCreate(t *testing.T) {
	kv, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	kv.Close()

	b := Open(kv, quietLog())
	sess := Session{User: &store.User{ID: "1", Role: store.RoleAdmin}}
	if _, err := b.Tasks.Create(sess, TaskDraft{Title: "x"}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}
