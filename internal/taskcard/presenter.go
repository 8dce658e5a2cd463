// Package taskcard holds the interaction state behind a single task card:
// which assigned employees are shown, and the delete, detail and roster
// dialogs. Rendering is left to the caller.
package taskcard

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Joseda-hg/lazyteam/internal/model"
)

const (
	inlineAvatars      = 2
	LoadingPlaceholder = "Loading…"
)

var statusColors = map[string]string{
	model.StatusCompleted:  "#4caf50",
	model.StatusInReview:   "#ff9800",
	model.StatusNotStarted: "#f44336",
	model.StatusInProgress: "#2196f3",
}

func StatusColor(status string) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "grey"
}

type MemberSource interface {
	Get(id string) (model.Member, bool)
	Request(id string)
	Subscribe(fn func(id string)) func()
}

// DeleteFunc removes a task. A nil DeleteFunc means the card offers no delete.
type DeleteFunc func(ctx context.Context, taskID string) error

type Avatar struct {
	MemberID string
	Initial  string
}

type Card struct {
	TaskID      string
	Name        string
	Date        string
	Status      string
	StatusColor string
	Avatars     []Avatar
	More        int
	CanDelete   bool
}

type Detail struct {
	Open    bool
	Loading bool
	Member  model.Member
}

type Dialogs struct {
	ConfirmOpen bool
	DetailOpen  bool
	RosterOpen  bool
}

type Presenter struct {
	members  MemberSource
	onDelete DeleteFunc

	mu          sync.Mutex
	task        model.Task
	confirmOpen bool
	deleting    bool
	detailOpen  bool
	selectedID  string
	rosterOpen  bool
	unsubscribe func()
	onChange    func()
}

func New(task model.Task, members MemberSource, onDelete DeleteFunc) *Presenter {
	return &Presenter{task: task, members: members, onDelete: onDelete}
}

// OnChange sets the hook invoked whenever something the card shows changes,
// including members resolving in the background.
func (p *Presenter) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *Presenter) Mount() {
	p.mu.Lock()
	if p.unsubscribe == nil {
		p.unsubscribe = p.members.Subscribe(p.memberResolved)
	}
	ids := p.task.EmployeeIDs
	p.mu.Unlock()

	p.resolve(ids)
}

func (p *Presenter) Unmount() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.confirmOpen = false
	p.detailOpen = false
	p.selectedID = ""
	p.rosterOpen = false
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// SetTask swaps in a fresh copy of the task, re-resolving members only when
// the assigned ids changed.
func (p *Presenter) SetTask(task model.Task) {
	p.mu.Lock()
	changed := !p.task.EmployeeIDs.Equal(task.EmployeeIDs)
	p.task = task
	mounted := p.unsubscribe != nil
	p.mu.Unlock()

	if changed && mounted {
		p.resolve(task.EmployeeIDs)
	}
	p.changed()
}

func (p *Presenter) Task() model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task
}

func (p *Presenter) Card() Card {
	p.mu.Lock()
	task := p.task
	canDelete := p.canDeleteLocked()
	p.mu.Unlock()

	card := Card{
		TaskID:      task.ID,
		Name:        task.Name,
		Date:        displayDate(task.DateCreated),
		Status:      task.Status,
		StatusColor: StatusColor(task.Status),
		CanDelete:   canDelete,
	}

	ids := task.EmployeeIDs
	for _, id := range ids[:min(len(ids), inlineAvatars)] {
		member, ok := p.members.Get(id)
		if !ok {
			continue
		}
		card.Avatars = append(card.Avatars, Avatar{MemberID: id, Initial: member.Initial()})
	}
	if len(ids) > inlineAvatars {
		card.More = len(ids) - inlineAvatars
	}
	return card
}

func (p *Presenter) Dialogs() Dialogs {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Dialogs{ConfirmOpen: p.confirmOpen, DetailOpen: p.detailOpen, RosterOpen: p.rosterOpen}
}

func (p *Presenter) OpenDetail(id string) {
	p.mu.Lock()
	p.detailOpen = true
	p.selectedID = id
	p.mu.Unlock()
	p.changed()
}

func (p *Presenter) CloseDetail() {
	p.mu.Lock()
	p.detailOpen = false
	p.selectedID = ""
	p.mu.Unlock()
	p.changed()
}

// Detail reports the employee detail dialog. While the selected member has
// not resolved it is Loading.
func (p *Presenter) Detail() Detail {
	p.mu.Lock()
	open, id := p.detailOpen, p.selectedID
	p.mu.Unlock()

	if !open {
		return Detail{}
	}
	member, ok := p.members.Get(id)
	if !ok {
		return Detail{Open: true, Loading: true}
	}
	return Detail{Open: true, Member: member}
}

func (p *Presenter) OpenRoster() {
	p.mu.Lock()
	p.rosterOpen = true
	p.mu.Unlock()
	p.changed()
}

func (p *Presenter) CloseRoster() {
	p.mu.Lock()
	p.rosterOpen = false
	p.mu.Unlock()
	p.changed()
}

// Roster lists every resolved assigned member in assignment order.
func (p *Presenter) Roster() []model.Member {
	p.mu.Lock()
	ids := p.task.EmployeeIDs
	p.mu.Unlock()

	roster := make([]model.Member, 0, len(ids))
	for _, id := range ids {
		if member, ok := p.members.Get(id); ok {
			roster = append(roster, member)
		}
	}
	return roster
}

func (p *Presenter) SelectFromRoster(id string) {
	p.mu.Lock()
	p.detailOpen = true
	p.selectedID = id
	p.rosterOpen = false
	p.mu.Unlock()
	p.changed()
}

func (p *Presenter) ConfirmTitle() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("Are you sure you want to delete task \"%s\"?", p.task.Name)
}

// RequestDelete opens the confirmation dialog. It reports false when the
// card does not offer deletion.
func (p *Presenter) RequestDelete() bool {
	p.mu.Lock()
	if !p.canDeleteLocked() {
		p.mu.Unlock()
		return false
	}
	p.confirmOpen = true
	p.mu.Unlock()
	p.changed()
	return true
}

func (p *Presenter) CancelDelete() {
	p.mu.Lock()
	p.confirmOpen = false
	p.mu.Unlock()
	p.changed()
}

// ConfirmDelete runs the delete callback once and closes the confirmation
// whether or not it succeeded. The callback's error is returned but not kept.
func (p *Presenter) ConfirmDelete(ctx context.Context) error {
	p.mu.Lock()
	if !p.confirmOpen || p.deleting || p.onDelete == nil {
		p.mu.Unlock()
		return nil
	}
	p.deleting = true
	taskID := p.task.ID
	onDelete := p.onDelete
	p.mu.Unlock()

	err := onDelete(ctx, taskID)

	p.mu.Lock()
	p.deleting = false
	p.confirmOpen = false
	p.mu.Unlock()
	p.changed()

	if err != nil {
		log.Printf("delete task %s: %v", taskID, err)
	}
	return err
}

func (p *Presenter) canDeleteLocked() bool {
	return p.task.Status == model.StatusCompleted && p.onDelete != nil
}

func (p *Presenter) resolve(ids model.IDList) {
	for _, id := range ids {
		if _, ok := p.members.Get(id); !ok {
			p.members.Request(id)
		}
	}
}

func (p *Presenter) memberResolved(id string) {
	p.mu.Lock()
	relevant := false
	for _, assigned := range p.task.EmployeeIDs {
		if assigned == id {
			relevant = true
			break
		}
	}
	p.mu.Unlock()

	if relevant {
		p.changed()
	}
}

func (p *Presenter) changed() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}
