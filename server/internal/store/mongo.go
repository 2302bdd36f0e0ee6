package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names, kept compatible with the documents the original
// application wrote.
const (
	usersCollection   = "users"
	resultsCollection = "resultcards"
)

// Mongo is a Store backed by a MongoDB database.
type Mongo struct {
	client  *mongo.Client
	users   *mongo.Collection
	results *mongo.Collection
	now     func() time.Time
}

type userDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
	Age   float64            `bson:"age"` // legacy documents hold doubles
}

type subjectDoc struct {
	Name        string  `bson:"name"`
	CreditHours float64 `bson:"creditHours"`
	GPA         float64 `bson:"gpa"`
}

type resultDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	StudentName    string             `bson:"studentName"`
	UniversityName string             `bson:"universityName"`
	DepartmentName string             `bson:"departmentName"`
	Semester       string             `bson:"semester"`
	TotalSubjects  int                `bson:"totalSubjects"`
	Subjects       []subjectDoc       `bson:"subjects"`
	CGPA           float64            `bson:"cgpa"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

// OpenMongo connects to uri, verifies the connection with a ping and ensures
// the createdAt index on the results collection. timeout bounds the whole
// sequence.
func OpenMongo(ctx context.Context, uri, database string, timeout time.Duration) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:  client,
		users:   db.Collection(usersCollection),
		results: db.Collection(resultsCollection),
		now:     time.Now,
	}

	_, err = m.results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("mongo: create index: %w", err)
	}
	return m, nil
}

func (m *Mongo) CreateUser(ctx context.Context, in NewUser) (User, error) {
	if err := Validate(in); err != nil {
		return User{}, err
	}
	doc := userDoc{ID: primitive.NewObjectID(), Name: in.Name, Email: in.Email, Age: float64(in.Age)}
	if _, err := m.users.InsertOne(ctx, doc); err != nil {
		return User{}, fmt.Errorf("mongo: insert user: %w", err)
	}
	return doc.toUser(), nil
}

func (m *Mongo) ListUsers(ctx context.Context) ([]User, error) {
	cur, err := m.users.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo: find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode users: %w", err)
	}
	out := make([]User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toUser())
	}
	return out, nil
}

func (m *Mongo) UpdateUser(ctx context.Context, id string, p UserPatch) (User, error) {
	if err := Validate(p); err != nil {
		return User{}, err
	}
	oid, err := parseObjectID(id)
	if err != nil {
		return User{}, err
	}

	var doc userDoc
	filter := bson.D{{Key: "_id", Value: oid}}
	if set := patchDoc(p); len(set) > 0 {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = m.users.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	} else {
		// An empty $set is rejected by the server; just return the record.
		err = m.users.FindOne(ctx, filter).Decode(&doc)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("mongo: update user: %w", err)
	}
	return doc.toUser(), nil
}

func (m *Mongo) DeleteUser(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := m.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("mongo: delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) CreateResult(ctx context.Context, r Result) (Result, error) {
	oid := primitive.NewObjectID()
	stored, err := prepareResult(r, oid.Hex(), m.now())
	if err != nil {
		return Result{}, err
	}
	// BSON dates carry millisecond precision; truncate so the returned
	// record equals what a later read yields.
	stored.CreatedAt = stored.CreatedAt.Truncate(time.Millisecond)

	if _, err := m.results.InsertOne(ctx, toResultDoc(oid, stored)); err != nil {
		return Result{}, fmt.Errorf("mongo: insert result: %w", err)
	}
	return stored, nil
}

func (m *Mongo) ListResults(ctx context.Context) ([]Result, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.results.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find results: %w", err)
	}
	var docs []resultDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode results: %w", err)
	}
	out := make([]Result, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toResult())
	}
	return out, nil
}

func (m *Mongo) GetResult(ctx context.Context, id string) (Result, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return Result{}, err
	}
	var doc resultDoc
	err = m.results.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("mongo: get result: %w", err)
	}
	return doc.toResult(), nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// --- document mapping -------------------------------------------------------

// parseObjectID maps a malformed hex id to ErrNotFound: no document can have it.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// patchDoc builds the $set document for the non-nil fields of p.
func patchDoc(p UserPatch) bson.D {
	var set bson.D
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *p.Email})
	}
	if p.Age != nil {
		set = append(set, bson.E{Key: "age", Value: *p.Age})
	}
	return set
}

func (d userDoc) toUser() User {
	return User{ID: d.ID.Hex(), Name: d.Name, Email: d.Email, Age: wholeAge(d.Age)}
}

// wholeAge rounds a stored age to the nearest year. Values that do not fit
// an age read as 0.
func wholeAge(v float64) int {
	if math.IsNaN(v) || v < 0 || v > math.MaxInt32 {
		return 0
	}
	return int(math.Round(v))
}

func toResultDoc(oid primitive.ObjectID, r Result) resultDoc {
	subs := make([]subjectDoc, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		subs = append(subs, subjectDoc(s))
	}
	return resultDoc{
		ID:             oid,
		StudentName:    r.StudentName,
		UniversityName: r.UniversityName,
		DepartmentName: r.DepartmentName,
		Semester:       r.Semester,
		TotalSubjects:  r.TotalSubjects,
		Subjects:       subs,
		CGPA:           r.CGPA,
		CreatedAt:      r.CreatedAt,
	}
}

func (d resultDoc) toResult() Result {
	subs := make([]Subject, 0, len(d.Subjects))
	for _, s := range d.Subjects {
		subs = append(subs, Subject(s))
	}
	return Result{
		ID:             d.ID.Hex(),
		StudentName:    d.StudentName,
		UniversityName: d.UniversityName,
		DepartmentName: d.DepartmentName,
		Semester:       d.Semester,
		TotalSubjects:  d.TotalSubjects,
		Subjects:       subs,
		CGPA:           d.CGPA,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}
