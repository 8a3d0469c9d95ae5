package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reviewpasta/internal/domain"
)

const (
	businessesCollection = "businesses"
	waitlistCollection   = "waitlist"
)

type businessDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Slug        string    `bson:"slug"`
	PlaceID     string    `bson:"placeId"`
	Location    *string   `bson:"location,omitempty"`
	Description *string   `bson:"description,omitempty"`
	OwnerID     *string   `bson:"ownerId,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type waitlistDocument struct {
	ID                  string    `bson:"_id"`
	Email               string    `bson:"email"`
	PhoneNumber         string    `bson:"phoneNumber"`
	Name                string    `bson:"name"`
	BusinessName        string    `bson:"businessName"`
	BusinessDescription string    `bson:"businessDescription"`
	BusinessURL         string    `bson:"businessUrl"`
	Message             *string   `bson:"message,omitempty"`
	Status              string    `bson:"status"`
	CreatedAt           time.Time `bson:"createdAt"`
}

// Repo is the hosted backend on MongoDB. Slug and email uniqueness come
// from the indexes created by EnsureIndexes.
type Repo struct {
	client     *mongo.Client
	businesses *mongo.Collection
	waitlist   *mongo.Collection
}

func New(client *mongo.Client, database string) *Repo {
	db := client.Database(database)
	return &Repo{
		client:     client,
		businesses: db.Collection(businessesCollection),
		waitlist:   db.Collection(waitlistCollection),
	}
}

// Open connects, pings and makes sure the indexes exist.
func Open(ctx context.Context, uri, database string) (*Repo, error) {
	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}
	r := New(client, database)
	if err := r.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return r, nil
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.businesses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("uniq_business_slug").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_business_created"),
		},
	}); err != nil {
		return errors.Wrap(err, "business indexes")
	}
	if _, err := r.waitlist.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_waitlist_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_waitlist_status_created"),
		},
	}); err != nil {
		return errors.Wrap(err, "waitlist indexes")
	}
	return nil
}

func (r *Repo) Close(ctx context.Context) error { return r.client.Disconnect(ctx) }

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func (r *Repo) Add(ctx context.Context, b domain.NewBusiness) (string, error) {
	created := b.CreatedAt
	if created.IsZero() {
		created = now()
	}
	doc := businessDocument{
		ID:          uuid.NewString(),
		Name:        b.Name,
		Slug:        b.Slug,
		PlaceID:     b.PlaceID,
		Location:    b.Location,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		CreatedAt:   created.UTC(),
	}
	if _, err := r.businesses.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.Mark(errors.Wrapf(err, "slug %q", b.Slug), domain.ErrDuplicateSlug)
		}
		return "", err
	}
	return doc.ID, nil
}

func (r *Repo) UpdateDescription(ctx context.Context, id string, description *string) error {
	update := bson.D{{Key: "$unset", Value: bson.D{{Key: "description", Value: ""}}}}
	if description != nil {
		update = bson.D{{Key: "$set", Value: bson.D{{Key: "description", Value: *description}}}}
	}
	res, err := r.businesses.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.businesses.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (domain.Business, error) {
	return r.findBusiness(ctx, bson.D{{Key: "slug", Value: slug}})
}

func (r *Repo) GetByID(ctx context.Context, id string) (domain.Business, error) {
	return r.findBusiness(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *Repo) findBusiness(ctx context.Context, filter bson.D) (domain.Business, error) {
	var doc businessDocument
	err := r.businesses.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Business{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Business{}, err
	}
	return doc.toDomain(), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Business, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.businesses.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []businessDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Business, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *Repo) Slugs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "slug", Value: 1}})
	cur, err := r.businesses.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		Slug string `bson:"slug"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Slug)
	}
	return out, nil
}

func (d businessDocument) toDomain() domain.Business {
	return domain.Business{
		ID:          d.ID,
		Name:        d.Name,
		Slug:        d.Slug,
		PlaceID:     d.PlaceID,
		Location:    d.Location,
		Description: d.Description,
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// ---- waitlist ----

func (r *Repo) AddEntry(ctx context.Context, e domain.WaitlistEntry) (string, error) {
	if e.Status == "" {
		e.Status = domain.WaitlistPending
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = now()
	}
	doc := waitlistDocument{
		ID:                  uuid.NewString(),
		Email:               e.Email,
		PhoneNumber:         e.PhoneNumber,
		Name:                e.Name,
		BusinessName:        e.BusinessName,
		BusinessDescription: e.BusinessDescription,
		BusinessURL:         e.BusinessURL,
		Message:             e.Message,
		Status:              string(e.Status),
		CreatedAt:           created.UTC(),
	}
	if _, err := r.waitlist.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.Mark(errors.Wrapf(err, "email %q", e.Email), domain.ErrDuplicateEmail)
		}
		return "", err
	}
	return doc.ID, nil
}

func (r *Repo) ListEntries(ctx context.Context, status *domain.WaitlistStatus) ([]domain.WaitlistEntry, error) {
	filter := bson.D{}
	if status != nil {
		filter = bson.D{{Key: "status", Value: string(*status)}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.waitlist.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []waitlistDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.WaitlistEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.WaitlistEntry{
			ID:                  d.ID,
			Email:               d.Email,
			PhoneNumber:         d.PhoneNumber,
			Name:                d.Name,
			BusinessName:        d.BusinessName,
			BusinessDescription: d.BusinessDescription,
			BusinessURL:         d.BusinessURL,
			Message:             d.Message,
			Status:              domain.WaitlistStatus(d.Status),
			CreatedAt:           d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, status domain.WaitlistStatus) error {
	res, err := r.waitlist.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: string(status)}}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
