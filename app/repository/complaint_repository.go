package repository

import (
	"context"
	"errors"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ComplaintsCollection is the MongoDB collection holding complaints.
const ComplaintsCollection = "complaints"

// DateRange bounds createdAt. Each bound is optional and applied on its own.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Match returns the createdAt condition for r, or nil when r is empty.
func (r DateRange) Match() bson.M {
	if r.IsZero() {
		return nil
	}
	cond := bson.M{}
	if r.From != nil {
		cond["$gte"] = *r.From
	}
	if r.To != nil {
		cond["$lte"] = *r.To
	}
	return cond
}

// ComplaintFilter narrows complaint listings. Empty fields are ignored.
type ComplaintFilter struct {
	ReportedBy string
	AssignedTo string
	Status     model.Status
	Priority   model.Priority
	Category   model.Category
	Building   string
	Created    DateRange
}

// Match builds the MongoDB filter document for f.
func (f ComplaintFilter) Match() bson.M {
	m := bson.M{}
	if f.ReportedBy != "" {
		m["reportedBy"] = f.ReportedBy
	}
	if f.AssignedTo != "" {
		m["assignedTo"] = f.AssignedTo
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.Priority != "" {
		m["priority"] = f.Priority
	}
	if f.Category != "" {
		m["category"] = f.Category
	}
	if f.Building != "" {
		m["location.building"] = f.Building
	}
	if cond := f.Created.Match(); cond != nil {
		m["createdAt"] = cond
	}
	return m
}

// ComplaintUpdate is a partial change applied to one complaint in a single
// atomic write. Nil fields are left untouched; Note is appended.
type ComplaintUpdate struct {
	Status              model.Status
	AssignedTo          *string
	EstimatedCompletion *time.Time
	ActualCompletion    *time.Time
	ClearCompletion     bool // unsets actualCompletion; ignored when ActualCompletion is set
	IsResolved          *bool
	ResolutionNotes     *string
	AfterImages         []model.Image // replaces images.after when non-nil
	Note                *model.Note

	// AllowedFrom, when set, only lets the write through while the stored
	// status is one of these values.
	AllowedFrom []model.Status
}

// Document renders the $set/$push update for u.
func (u ComplaintUpdate) Document(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Status != "" {
		set["status"] = u.Status
	}
	if u.AssignedTo != nil {
		set["assignedTo"] = *u.AssignedTo
	}
	if u.EstimatedCompletion != nil {
		set["estimatedCompletion"] = *u.EstimatedCompletion
	}
	if u.ActualCompletion != nil {
		set["actualCompletion"] = *u.ActualCompletion
	}
	if u.IsResolved != nil {
		set["isResolved"] = *u.IsResolved
	}
	if u.ResolutionNotes != nil {
		set["resolutionNotes"] = *u.ResolutionNotes
	}
	if u.AfterImages != nil {
		set["images.after"] = u.AfterImages
	}

	doc := bson.M{"$set": set}
	if u.ClearCompletion && u.ActualCompletion == nil {
		doc["$unset"] = bson.M{"actualCompletion": ""}
	}
	if u.Note != nil {
		doc["$push"] = bson.M{"notes": *u.Note}
	}
	return doc
}

// Permits reports whether the guard in AllowedFrom accepts status.
func (u ComplaintUpdate) Permits(status model.Status) bool {
	if len(u.AllowedFrom) == 0 {
		return true
	}
	for _, s := range u.AllowedFrom {
		if s == status {
			return true
		}
	}
	return false
}

// Apply mirrors Document on an in-memory complaint.
func (u ComplaintUpdate) Apply(c *model.Complaint, now time.Time) {
	c.UpdatedAt = now
	if u.Status != "" {
		c.Status = u.Status
	}
	if u.AssignedTo != nil {
		c.AssignedTo = *u.AssignedTo
	}
	if u.EstimatedCompletion != nil {
		t := *u.EstimatedCompletion
		c.EstimatedCompletion = &t
	}
	if u.ActualCompletion != nil {
		t := *u.ActualCompletion
		c.ActualCompletion = &t
	} else if u.ClearCompletion {
		c.ActualCompletion = nil
	}
	if u.IsResolved != nil {
		c.IsResolved = *u.IsResolved
	}
	if u.ResolutionNotes != nil {
		c.ResolutionNotes = *u.ResolutionNotes
	}
	if u.AfterImages != nil {
		c.Images.After = append([]model.Image{}, u.AfterImages...)
	}
	if u.Note != nil {
		c.Notes = append(c.Notes, *u.Note)
	}
}

// ComplaintRepository defines MongoDB operations on complaints.
type ComplaintRepository interface {
	Insert(ctx context.Context, c *model.Complaint) error
	FindByID(ctx context.Context, id string) (*model.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter, page utils.Page) ([]model.Complaint, int64, error)
	Update(ctx context.Context, id string, upd ComplaintUpdate) (*model.Complaint, error)
	Delete(ctx context.Context, id string) (*model.Complaint, error)
	FindForExport(ctx context.Context, created DateRange) ([]model.Complaint, error)
}

type complaintRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewComplaintRepository creates a ComplaintRepository on db.complaints.
func NewComplaintRepository(db *mongo.Database) ComplaintRepository {
	return &complaintRepository{coll: db.Collection(ComplaintsCollection), now: time.Now}
}

// Insert stores a new complaint and fills in its ID and timestamps.
func (r *complaintRepository) Insert(ctx context.Context, c *model.Complaint) error {
	now := r.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	// $push needs real arrays, not null.
	if c.Notes == nil {
		c.Notes = []model.Note{}
	}
	if c.Images.Before == nil {
		c.Images.Before = []model.Image{}
	}
	if c.Images.After == nil {
		c.Images.After = []model.Image{}
	}

	res, err := r.coll.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

// FindByID returns ErrNotFound for unknown and malformed ids alike.
func (r *complaintRepository) FindByID(ctx context.Context, id string) (*model.Complaint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var c model.Complaint
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// List returns one page of complaints, newest first, plus the total count.
func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter, page utils.Page) ([]model.Complaint, int64, error) {
	match := filter.Match()

	total, err := r.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	items, err := r.find(ctx, match, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update applies upd atomically and returns the document after the write.
// A guarded update that no longer matches the stored status returns
// ErrStaleStatus.
func (r *complaintRepository) Update(ctx context.Context, id string, upd ComplaintUpdate) (*model.Complaint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{"_id": oid}
	if len(upd.AllowedFrom) > 0 {
		filter["status"] = bson.M{"$in": upd.AllowedFrom}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c model.Complaint
	err = r.coll.FindOneAndUpdate(ctx, filter, upd.Document(r.now().UTC()), opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) && len(upd.AllowedFrom) > 0 {
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if cerr != nil {
			return nil, cerr
		}
		if n > 0 {
			return nil, ErrStaleStatus
		}
	}
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Delete removes the complaint and returns what was stored.
func (r *complaintRepository) Delete(ctx context.Context, id string) (*model.Complaint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var c model.Complaint
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindForExport returns every complaint created within the range, newest first.
func (r *complaintRepository) FindForExport(ctx context.Context, created DateRange) ([]model.Complaint, error) {
	filter := ComplaintFilter{Created: created}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filter.Match(), opts)
}

func (r *complaintRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Complaint, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []model.Complaint{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
