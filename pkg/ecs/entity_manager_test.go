package ecs

import (
	"reflect"
	"testing"
)

// 测试用组件：鱼、鱼食、气泡
type testFish struct {
	X, Y  float64
	Speed float64
}

type testPellet struct {
	Size float64
}

type testBubble struct{}

func TestCreateEntityIDsAreSequential(t *testing.T) {
	em := NewEntityManager()
	for want := EntityID(1); want <= 3; want++ {
		if got := em.CreateEntity(); got != want {
			t.Errorf("CreateEntity() = %d, want %d", got, want)
		}
	}
	if em.EntityCount() != 3 {
		t.Errorf("EntityCount() = %d, want 3", em.EntityCount())
	}
}

func TestComponentRoundTrip(t *testing.T) {
	em := NewEntityManager()
	fish := em.CreateEntity()
	pellet := em.CreateEntity()

	em.AddComponent(fish, &testFish{X: 12, Y: 34, Speed: 1.5})
	em.AddComponent(pellet, &testPellet{Size: 3})

	fishType := reflect.TypeOf(&testFish{})
	comp, ok := em.GetComponent(fish, fishType)
	if !ok {
		t.Fatal("fish component not found")
	}
	if f := comp.(*testFish); f.X != 12 || f.Y != 34 || f.Speed != 1.5 {
		t.Errorf("fish component = %+v", f)
	}

	// 鱼食实体没有鱼组件
	if em.HasComponent(pellet, fishType) {
		t.Error("pellet should not have a fish component")
	}

	// 同类组件再次添加会覆盖
	em.AddComponent(fish, &testFish{Speed: 2})
	if f, _ := GetComponent[*testFish](em, fish); f.Speed != 2 {
		t.Errorf("replaced speed = %v, want 2", f.Speed)
	}
}

func TestDestroyIsDeferredUntilRemoval(t *testing.T) {
	em := NewEntityManager()
	ids := []EntityID{em.CreateEntity(), em.CreateEntity(), em.CreateEntity()}
	for _, id := range ids {
		em.AddComponent(id, &testPellet{})
	}

	em.DestroyEntity(ids[0])
	em.DestroyEntity(ids[2])

	// 清理前组件仍可访问，只是被标记
	if !HasComponent[*testPellet](em, ids[0]) || !em.IsMarkedForDestroy(ids[0]) {
		t.Error("marked entity should keep its components until removal")
	}

	if removed := em.RemoveMarkedEntities(); removed != 2 {
		t.Errorf("RemoveMarkedEntities() = %d, want 2", removed)
	}

	tests := []struct {
		id    EntityID
		alive bool
	}{
		{ids[0], false},
		{ids[1], true},
		{ids[2], false},
	}
	for _, tt := range tests {
		if got := em.Exists(tt.id); got != tt.alive {
			t.Errorf("Exists(%d) = %v, want %v", tt.id, got, tt.alive)
		}
		if got := HasComponent[*testPellet](em, tt.id); got != tt.alive {
			t.Errorf("HasComponent(%d) = %v, want %v", tt.id, got, tt.alive)
		}
	}
}

func TestGetEntitiesWithQueries(t *testing.T) {
	em := NewEntityManager()

	fishWithFood := em.CreateEntity()
	em.AddComponent(fishWithFood, &testFish{})
	em.AddComponent(fishWithFood, &testPellet{})

	fishOnly := em.CreateEntity()
	em.AddComponent(fishOnly, &testFish{})

	pelletOnly := em.CreateEntity()
	em.AddComponent(pelletOnly, &testPellet{})
	em.AddComponent(pelletOnly, &testBubble{})

	tests := []struct {
		name  string
		types []reflect.Type
		want  []EntityID
	}{
		{"fish", []reflect.Type{reflect.TypeOf(&testFish{})}, []EntityID{fishWithFood, fishOnly}},
		{"pellet", []reflect.Type{reflect.TypeOf(&testPellet{})}, []EntityID{fishWithFood, pelletOnly}},
		{"fish and pellet", []reflect.Type{reflect.TypeOf(&testFish{}), reflect.TypeOf(&testPellet{})}, []EntityID{fishWithFood}},
		{"fish and bubble", []reflect.Type{reflect.TypeOf(&testFish{}), reflect.TypeOf(&testBubble{})}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := em.GetEntitiesWith(tt.types...)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}

	if got := GetEntitiesWith3[*testFish, *testPellet, *testBubble](em); len(got) != 0 {
		t.Errorf("GetEntitiesWith3 = %v, want none", got)
	}
}

func TestGetEntitiesWithKeepsCreationOrder(t *testing.T) {
	em := NewEntityManager()

	ids := make([]EntityID, 0, 6)
	for i := 0; i < 6; i++ {
		id := em.CreateEntity()
		em.AddComponent(id, &testFish{X: float64(i)})
		ids = append(ids, id)
	}

	// 删除中间的实体后顺序仍然稳定
	em.DestroyEntity(ids[2])
	em.RemoveMarkedEntities()

	got := GetEntitiesWith1[*testFish](em)
	want := []EntityID{ids[0], ids[1], ids[3], ids[4], ids[5]}
	if len(got) != len(want) {
		t.Fatalf("expected %d entities, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected id %d, got %d", i, want[i], got[i])
		}
	}
}

func TestDestroyEntityIsIdempotent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	other := em.CreateEntity()

	em.DestroyEntity(id)
	em.DestroyEntity(id)
	if removed := em.RemoveMarkedEntities(); removed != 1 {
		t.Errorf("expected 1 removed entity, got %d", removed)
	}

	// 已删除的实体再次标记不应产生任何影响
	em.DestroyEntity(id)
	if em.IsMarkedForDestroy(id) {
		t.Error("removed entity should not be marked again")
	}
	if removed := em.RemoveMarkedEntities(); removed != 0 {
		t.Errorf("expected 0 removed entities, got %d", removed)
	}
	if !em.Exists(other) {
		t.Error("unrelated entity should survive")
	}
	if em.EntityCount() != 1 {
		t.Errorf("expected 1 entity left, got %d", em.EntityCount())
	}
}

func TestGenericHelpers(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testFish{X: 3, Y: 4})
	em.AddComponent(id, &testPellet{Size: 1})

	pos, ok := GetComponent[*testFish](em, id)
	if !ok || pos.X != 3 || pos.Y != 4 {
		t.Fatalf("generic GetComponent mismatch: %+v ok=%v", pos, ok)
	}

	if got := GetEntitiesWith2[*testFish, *testPellet](em); len(got) != 1 {
		t.Errorf("expected 1 entity with both components, got %d", len(got))
	}

	RemoveComponent[*testPellet](em, id)
	if HasComponent[*testPellet](em, id) {
		t.Error("pellet component should be removed")
	}
	if _, ok := GetComponent[*testPellet](em, id); ok {
		t.Error("GetComponent should fail after removal")
	}
}
