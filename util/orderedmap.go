package labutil

// The specialized map that keeps the order of the keys. The topology keeps
// devices in it so that every derived artifact follows the insertion order.
//
//	for _, key := range m.Keys() {
//		value, _ := m.Get(key)
//		// Do something with the key and value.
//	}
type OrderedMap[TKey comparable, TValue any] struct {
	keys []TKey
	data map[TKey]TValue
}

// Creates a new instance of the ordered map.
func NewOrderedMap[TKey comparable, TValue any]() *OrderedMap[TKey, TValue] {
	return &OrderedMap[TKey, TValue]{
		keys: make([]TKey, 0),
		data: make(map[TKey]TValue),
	}
}

// Sets the value for the given key. If the key already exists, the value
// is updated and the key keeps its position.
func (m *OrderedMap[TKey, TValue]) Set(key TKey, value TValue) {
	if _, ok := m.data[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.data[key] = value
}

// Gets the value for the given key. If the key does not exist, the second
// return value will be false.
func (m *OrderedMap[TKey, TValue]) Get(key TKey) (TValue, bool) {
	value, ok := m.data[key]
	return value, ok
}

// Checks if the key exists.
func (m *OrderedMap[TKey, TValue]) Has(key TKey) bool {
	_, ok := m.data[key]
	return ok
}

// Deletes the key from the map. If the key does not exist, it does nothing.
func (m *OrderedMap[TKey, TValue]) Delete(key TKey) {
	if _, ok := m.data[key]; !ok {
		return
	}

	delete(m.data, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Returns a copy of the keys in the order they were inserted.
func (m *OrderedMap[TKey, TValue]) Keys() []TKey {
	return append([]TKey{}, m.keys...)
}

// Returns the values in the order their keys were inserted.
func (m *OrderedMap[TKey, TValue]) Values() []TValue {
	values := make([]TValue, 0, len(m.keys))
	for _, key := range m.keys {
		values = append(values, m.data[key])
	}
	return values
}

// Returns the number of key-value pairs in the map.
func (m *OrderedMap[TKey, TValue]) Len() int {
	return len(m.keys)
}
