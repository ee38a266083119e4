// In-memory instance store. It backs the HTTP API with the narrow
// read contracts the view builders depend on: fetch by id, fetch
// attachments by id, floating address lookup. Instances are
// soft-deleted: a removed instance is marked, not dropped, and stays
// visible to elevated reads and changes-since queries.

package store

import (
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/craneworks/nimbus/compute"
	"github.com/craneworks/nimbus/errors"
)

type instance struct {
	record      compute.InstanceRecord
	attachments []compute.NetworkAttachment
	deleted     bool
}

// Store holds the service's instances, flavors, images, key pairs and
// floating address associations. Safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	instances   map[int]*instance
	byUUID      map[string]int
	flavors     map[string]compute.FlavorDetail
	images      map[string]compute.ImageDetail
	keypairs    map[string]compute.KeyPair
	floats      map[string][]string
	reservation map[int]string
	nextId      int
	now         func() time.Time
}

// New returns an empty store. Real deployments have flavors and
// images "out of the box", so we add some here.
func New() *Store {
	s := &Store{
		instances:   make(map[int]*instance),
		byUUID:      make(map[string]int),
		flavors:     make(map[string]compute.FlavorDetail),
		images:      make(map[string]compute.ImageDetail),
		keypairs:    make(map[string]compute.KeyPair),
		floats:      make(map[string][]string),
		reservation: make(map[int]string),
		now:         time.Now,
	}
	defaults := []compute.FlavorDetail{
		{Id: "1", Name: "m1.tiny", RAM: 512, VCPUs: 1, Disk: 0},
		{Id: "2", Name: "m1.small", RAM: 2048, VCPUs: 1, Disk: 20},
	}
	for _, flavor := range defaults {
		s.flavors[flavor.Id] = flavor
	}
	s.images["10"] = compute.ImageDetail{Id: "10", Name: "cirros", Status: "ACTIVE"}
	return s
}

// AddFlavor registers a new flavor.
func (s *Store) AddFlavor(flavor compute.FlavorDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flavors[flavor.Id]; ok {
		return errors.DuplicateValuef("a flavor with id %q already exists", flavor.Id)
	}
	s.flavors[flavor.Id] = flavor
	return nil
}

// Flavor retrieves an existing flavor by id.
func (s *Store) Flavor(flavorId string) (*compute.FlavorDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flavor, ok := s.flavors[flavorId]
	if !ok {
		return nil, errors.NotFoundf("no such flavor %q", flavorId)
	}
	return &flavor, nil
}

// AddImage registers a new image.
func (s *Store) AddImage(image compute.ImageDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[image.Id]; ok {
		return errors.DuplicateValuef("an image with id %q already exists", image.Id)
	}
	s.images[image.Id] = image
	return nil
}

// Image retrieves an existing image by id.
func (s *Store) Image(imageId string) (*compute.ImageDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	image, ok := s.images[imageId]
	if !ok {
		return nil, errors.NotFoundf("no such image %q", imageId)
	}
	return &image, nil
}

// AddKeyPair registers a named key pair.
func (s *Store) AddKeyPair(keypair compute.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keypairs[keypair.Name]; ok {
		return errors.DuplicateValuef("a key pair named %q already exists", keypair.Name)
	}
	s.keypairs[keypair.Name] = keypair
	return nil
}

// KeyPair retrieves a key pair by name.
func (s *Store) KeyPair(name string) (*compute.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keypair, ok := s.keypairs[name]
	if !ok {
		return nil, errors.NotFoundf("no such key pair %q", name)
	}
	return &keypair, nil
}

// AddInstance stores a new instance, assigning its id, uuid and
// timestamps, and returns the stored record.
func (s *Store) AddInstance(record compute.InstanceRecord, reservationId string) (compute.InstanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.UUID == "" {
		record.UUID = uuid.New().String()
	}
	if _, ok := s.byUUID[record.UUID]; ok {
		return record, errors.DuplicateValuef("a server with uuid %q already exists", record.UUID)
	}
	s.nextId++
	record.Id = s.nextId
	now := s.now().UTC().Truncate(time.Second)
	if record.Created.IsZero() {
		record.Created = now
	}
	if record.Updated.IsZero() {
		record.Updated = now
	}
	s.instances[record.Id] = &instance{record: record}
	s.byUUID[record.UUID] = record.Id
	s.reservation[record.Id] = reservationId
	return record, nil
}

// Instance retrieves a live instance by id.
func (s *Store) Instance(serverId int) (*compute.InstanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceLocked(serverId)
}

func (s *Store) instanceLocked(serverId int) (*compute.InstanceRecord, error) {
	inst, ok := s.instances[serverId]
	if !ok || inst.deleted {
		return nil, errors.NotFoundf("no such server %d", serverId)
	}
	record := inst.record
	return &record, nil
}

// InstanceByUUID retrieves a live instance by uuid.
func (s *Store) InstanceByUUID(serverUUID string) (*compute.InstanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	serverId, ok := s.byUUID[serverUUID]
	if !ok {
		return nil, errors.NotFoundf("no such server %q", serverUUID)
	}
	return s.instanceLocked(serverId)
}

// UpdateInstance replaces the mutable fields of a stored instance and
// refreshes its updated timestamp.
func (s *Store) UpdateInstance(record compute.InstanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[record.Id]
	if !ok || inst.deleted {
		return errors.NotFoundf("no such server %d", record.Id)
	}
	record.Created = inst.record.Created
	record.Updated = s.now().UTC().Truncate(time.Second)
	inst.record = record
	return nil
}

// RemoveInstance soft-deletes an instance. The record remains
// readable through elevated queries.
func (s *Store) RemoveInstance(serverId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[serverId]
	if !ok || inst.deleted {
		return errors.NotFoundf("no such server %d", serverId)
	}
	inst.deleted = true
	inst.record.Updated = s.now().UTC().Truncate(time.Second)
	return nil
}

// Attachments returns the network attachments of a live instance.
func (s *Store) Attachments(serverId int) ([]compute.NetworkAttachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[serverId]
	if !ok || inst.deleted {
		return nil, errors.NotFoundf("no such server %d", serverId)
	}
	return inst.attachments, nil
}

// SetAttachments replaces the network attachments of an instance.
func (s *Store) SetAttachments(serverId int, attachments []compute.NetworkAttachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[serverId]
	if !ok || inst.deleted {
		return errors.NotFoundf("no such server %d", serverId)
	}
	inst.attachments = attachments
	return nil
}

// AssociateFloatingIP records a floating address for a fixed one.
func (s *Store) AssociateFloatingIP(fixed, floating string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats[fixed] = append(s.floats[fixed], floating)
}

// FloatingIPs returns the floating addresses of a fixed address, in
// association order.
func (s *Store) FloatingIPs(fixed string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.floats[fixed]
}

// Filter restricts an AllInstances query. Zero fields do not filter.
// Name, IP and IP6 are regular expressions.
type Filter struct {
	Name           string
	VMState        compute.VMState
	ImageRef       string
	FlavorId       string
	ChangesSince   time.Time
	ProjectId      string
	ReservationId  string
	IP             string
	IP6            string
	IncludeDeleted bool
}

// matchAddress reports whether any address in the given lists matches
// the pattern.
func matchAddress(pattern string, lists ...[]string) bool {
	for _, addrs := range lists {
		for _, addr := range addrs {
			if matched, err := regexp.MatchString(pattern, addr); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// matchInstance returns whether the instance passes the filter.
// Changes-since queries see deleted instances regardless of
// IncludeDeleted, so a poller can observe deletions.
func (f *Filter) matchInstance(inst *instance) bool {
	record := inst.record
	if inst.deleted && !f.IncludeDeleted && f.ChangesSince.IsZero() {
		return false
	}
	if f.Name != "" {
		matched, err := regexp.MatchString(f.Name, record.Name)
		if err != nil || !matched {
			return false
		}
	}
	if f.VMState != "" && record.VMState != f.VMState {
		return false
	}
	if f.ImageRef != "" && record.ImageRef != f.ImageRef {
		return false
	}
	if f.FlavorId != "" && record.FlavorId != f.FlavorId {
		return false
	}
	if !f.ChangesSince.IsZero() && record.Updated.Before(f.ChangesSince) {
		return false
	}
	if f.ProjectId != "" && record.ProjectId != f.ProjectId {
		return false
	}
	if f.IP != "" {
		found := false
		for _, nic := range inst.attachments {
			if matchAddress(f.IP, nic.IPv4) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.IP6 != "" {
		found := false
		for _, nic := range inst.attachments {
			if matchAddress(f.IP6, nic.IPv6) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// AllInstances returns the matching instances ordered by id ascending.
func (s *Store) AllInstances(filter Filter) []compute.InstanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []compute.InstanceRecord
	for serverId, inst := range s.instances {
		if filter.ReservationId != "" && s.reservation[serverId] != filter.ReservationId {
			continue
		}
		if filter.matchInstance(inst) {
			records = append(records, inst.record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Id < records[j].Id
	})
	return records
}
