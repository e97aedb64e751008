package clean

func f() {}
