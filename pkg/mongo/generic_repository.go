package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// QueryOptions defines options for querying entities with filtering,
// pagination and sorting.
type QueryOptions struct {
	Filter bson.D
	// Page is 1-based.
	Page int
	Size int
	// Sort is the MongoDB sort criteria, e.g. bson.D{{"createdAt", -1}}.
	Sort bson.D
}

// PageResult represents a paginated result.
type PageResult[Domain any] struct {
	Items      []*Domain
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

// EntityMapper converts between domain models and MongoDB entities.
// Each repository implementation provides one.
type EntityMapper[Domain any, Entity any] interface {
	ToEntity(domain *Domain) *Entity
	ToDomain(entity *Entity) *Domain

	// GetID extracts the _id value from the entity.
	GetID(entity *Entity) string

	// GetVersion/SetVersion access the optimistic locking counter.
	GetVersion(entity *Entity) int
	SetVersion(entity *Entity, version int)
}

// GenericRepository provides common CRUD operations for MongoDB.
type GenericRepository[Domain any, Entity any] struct {
	coll   *mongodriver.Collection
	mapper EntityMapper[Domain, Entity]
}

func NewGenericRepository[Domain any, Entity any](
	coll *mongodriver.Collection,
	mapper EntityMapper[Domain, Entity],
) (*GenericRepository[Domain, Entity], error) {
	if coll == nil {
		return nil, fmt.Errorf("collection is required")
	}
	if mapper == nil {
		return nil, fmt.Errorf("mapper is required")
	}
	return &GenericRepository[Domain, Entity]{
		coll:   coll,
		mapper: mapper,
	}, nil
}

// Insert creates a new entity.
func (r *GenericRepository[Domain, Entity]) Insert(ctx context.Context, domain *Domain) error {
	entity := r.mapper.ToEntity(domain)

	if _, err := r.coll.InsertOne(ctx, entity); err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	return nil
}

// FindByID retrieves an entity by ID.
func (r *GenericRepository[Domain, Entity]) FindByID(ctx context.Context, id string) (*Domain, error) {
	result := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}})

	var entity Entity
	if err := result.Decode(&entity); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}

	return r.mapper.ToDomain(&entity), nil
}

// FindAll retrieves all entities.
func (r *GenericRepository[Domain, Entity]) FindAll(ctx context.Context) ([]*Domain, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var entities []Entity
	if err = cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}

	domains := make([]*Domain, 0, len(entities))
	for i := range entities {
		domains = append(domains, r.mapper.ToDomain(&entities[i]))
	}

	return domains, nil
}

// FindWithOptions retrieves entities with filtering, pagination and sorting.
func (r *GenericRepository[Domain, Entity]) FindWithOptions(
	ctx context.Context,
	opts QueryOptions,
) (*PageResult[Domain], error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Size < 1 {
		opts.Size = 10
	}
	if opts.Filter == nil {
		opts.Filter = bson.D{}
	}

	total, err := r.coll.CountDocuments(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}

	skip := int64((opts.Page - 1) * opts.Size)
	limit := int64(opts.Size)

	findOpts := options.Find().
		SetSkip(skip).
		SetLimit(limit)

	if opts.Sort != nil {
		findOpts.SetSort(opts.Sort)
	}

	cursor, err := r.coll.Find(ctx, opts.Filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var entities []Entity
	if err = cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}

	domains := make([]*Domain, 0, len(entities))
	for i := range entities {
		domains = append(domains, r.mapper.ToDomain(&entities[i]))
	}

	totalPages := int(total) / opts.Size
	if int(total)%opts.Size != 0 {
		totalPages++
	}

	return &PageResult[Domain]{
		Items:      domains,
		Total:      total,
		Page:       opts.Page,
		Size:       opts.Size,
		TotalPages: totalPages,
	}, nil
}

// Update replaces an existing entity with optimistic locking and returns the
// updated domain object.
func (r *GenericRepository[Domain, Entity]) Update(ctx context.Context, domain *Domain) (*Domain, error) {
	entity := r.mapper.ToEntity(domain)

	currentVersion := r.mapper.GetVersion(entity)
	r.mapper.SetVersion(entity, currentVersion+1)

	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	result := r.coll.FindOneAndReplace(
		ctx,
		bson.D{
			{Key: "_id", Value: r.mapper.GetID(entity)},
			{Key: "version", Value: currentVersion},
		},
		entity,
		opts,
	)

	if result.Err() != nil {
		if errors.Is(result.Err(), mongodriver.ErrNoDocuments) {
			// Either not found or a version mismatch; both surface as a
			// locking conflict to the caller.
			return nil, ErrOptimisticLocking
		}
		return nil, fmt.Errorf("failed to update entity: %w", result.Err())
	}

	var updated Entity
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated entity: %w", err)
	}

	return r.mapper.ToDomain(&updated), nil
}

// Delete hard deletes an entity by ID.
func (r *GenericRepository[Domain, Entity]) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}

// Exists checks if an entity with the given ID exists.
func (r *GenericRepository[Domain, Entity]) Exists(ctx context.Context, id string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check entity existence: %w", err)
	}
	return count > 0, nil
}
