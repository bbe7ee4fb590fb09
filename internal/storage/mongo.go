package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pagebuilder/internal/domain"
)

const mongoTimeout = 10 * time.Second

type projectDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type pageDoc struct {
	ID        string    `bson:"_id"`
	ProjectID string    `bson:"projectId"`
	Name      string    `bson:"name"`
	Order     int       `bson:"order"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type blockDoc struct {
	ID        string    `bson:"id"`
	Type      string    `bson:"type"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// pageBlocksDoc holds a page's whole block sequence, so a save is a single
// document replace.
type pageBlocksDoc struct {
	PageID    string     `bson:"_id"`
	Blocks    []blockDoc `bson:"blocks"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

// MongoStore implements both domain.ProjectStore and domain.BlockRepository.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri. database falls back to the path of the URI and
// then to "pagebuilder".
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = databaseFromURI(uri)
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &MongoStore{client: client, db: client.Database(database)}

	idxCtx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err = s.pages().Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "order", Value: 1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create page index: %w", err)
	}
	return s, nil
}

func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if at := strings.Index(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		name := rest[slash+1:]
		if q := strings.Index(name, "?"); q != -1 {
			name = name[:q]
		}
		if name != "" {
			return name
		}
	}
	return "pagebuilder"
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) projects() *mongo.Collection   { return s.db.Collection("projects") }
func (s *MongoStore) pages() *mongo.Collection      { return s.db.Collection("pages") }
func (s *MongoStore) pageBlocks() *mongo.Collection { return s.db.Collection("page_blocks") }

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), mongoTimeout)
}

func mongoNotFound(what, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("get %s %s: %w", what, id, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

// ── Projects ────────────────────────────────────────────────

func (s *MongoStore) CreateProject(p *domain.Project) error {
	ctx, cancel := opCtx()
	defer cancel()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.projects().InsertOne(ctx, projectDoc{ID: p.ID, Name: p.Name, CreatedAt: now, UpdatedAt: now})
	return err
}

func (s *MongoStore) GetProject(id string) (*domain.Project, error) {
	ctx, cancel := opCtx()
	defer cancel()
	var d projectDoc
	if err := s.projects().FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, mongoNotFound("project", id, err)
	}
	return &domain.Project{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}, nil
}

func (s *MongoStore) ListProjects() ([]domain.Project, error) {
	ctx, cancel := opCtx()
	defer cancel()
	cursor, err := s.projects().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var docs []projectDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]domain.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Project{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt})
	}
	return out, nil
}

func (s *MongoStore) UpdateProject(p *domain.Project) error {
	ctx, cancel := opCtx()
	defer cancel()
	p.UpdatedAt = time.Now().UTC()
	_, err := s.projects().UpdateOne(ctx, bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{"name": p.Name, "updatedAt": p.UpdatedAt}})
	return err
}

func (s *MongoStore) DeleteProject(id string) error {
	ctx, cancel := opCtx()
	defer cancel()
	_, err := s.projects().DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ── Pages ───────────────────────────────────────────────────

func pageFromDoc(d pageDoc) domain.Page {
	return domain.Page{ID: d.ID, ProjectID: d.ProjectID, Name: d.Name, Order: d.Order, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func (s *MongoStore) CreatePage(p *domain.Page) error {
	ctx, cancel := opCtx()
	defer cancel()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.pages().InsertOne(ctx, pageDoc{
		ID: p.ID, ProjectID: p.ProjectID, Name: p.Name, Order: p.Order, CreatedAt: now, UpdatedAt: now,
	})
	return err
}

func (s *MongoStore) GetPage(id string) (*domain.Page, error) {
	ctx, cancel := opCtx()
	defer cancel()
	var d pageDoc
	if err := s.pages().FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, mongoNotFound("page", id, err)
	}
	p := pageFromDoc(d)
	return &p, nil
}

func (s *MongoStore) ListPages(projectID string) ([]domain.Page, error) {
	ctx, cancel := opCtx()
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := s.pages().Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	var docs []pageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	out := make([]domain.Page, 0, len(docs))
	for _, d := range docs {
		out = append(out, pageFromDoc(d))
	}
	return out, nil
}

func (s *MongoStore) UpdatePage(p *domain.Page) error {
	ctx, cancel := opCtx()
	defer cancel()
	p.UpdatedAt = time.Now().UTC()
	_, err := s.pages().UpdateOne(ctx, bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{"name": p.Name, "order": p.Order, "updatedAt": p.UpdatedAt}})
	return err
}

func (s *MongoStore) DeletePage(id string) error {
	ctx, cancel := opCtx()
	defer cancel()
	_, err := s.pages().DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) DeletePagesByProject(projectID string) error {
	ctx, cancel := opCtx()
	defer cancel()
	_, err := s.pages().DeleteMany(ctx, bson.M{"projectId": projectID})
	return err
}

// ── Blocks ──────────────────────────────────────────────────

func (s *MongoStore) ListPageBlocks(ctx context.Context, pageID string) ([]domain.StoredBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	var d pageBlocksDoc
	err := s.pageBlocks().FindOne(ctx, bson.M{"_id": pageID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	out := make([]domain.StoredBlock, 0, len(d.Blocks))
	for i, b := range d.Blocks {
		out = append(out, domain.StoredBlock{
			ID:        b.ID,
			PageID:    pageID,
			Type:      domain.BlockType(b.Type),
			Content:   []byte(b.Content),
			SortOrder: i,
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		})
	}
	return out, nil
}

func (s *MongoStore) ReplacePageBlocks(ctx context.Context, pageID string, blocks []domain.StoredBlock) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	now := time.Now().UTC()
	doc := pageBlocksDoc{PageID: pageID, Blocks: make([]blockDoc, 0, len(blocks)), UpdatedAt: now}
	for _, b := range blocks {
		created, updated := stamp(b, now)
		doc.Blocks = append(doc.Blocks, blockDoc{
			ID: b.ID, Type: string(b.Type), Content: string(b.Content), CreatedAt: created, UpdatedAt: updated,
		})
	}
	_, err := s.pageBlocks().ReplaceOne(ctx, bson.M{"_id": pageID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace blocks: %w", err)
	}
	return nil
}

func (s *MongoStore) DeletePageBlocks(ctx context.Context, pageID string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err := s.pageBlocks().DeleteOne(ctx, bson.M{"_id": pageID})
	return err
}

func (s *MongoStore) PageFingerprint(ctx context.Context, pageID string) (string, error) {
	blocks, err := s.ListPageBlocks(ctx, pageID)
	if err != nil {
		return "", fmt.Errorf("page fingerprint: %w", err)
	}
	return fingerprint(blocks), nil
}
