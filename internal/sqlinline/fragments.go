package sqlinline

const QSelectActiveFragment = `--sql 5220a1d9-003c-4202-8517-2afc3d97daa8
select id, category, subcategory, content, is_active, version
from prompt_fragments
where category = $1::text
  and subcategory = $2::text
  and is_active
order by version desc
limit 1;
`

const QListFragmentsByCategory = `--sql fdb76134-fdf5-4d1b-83cf-cfe8feeb3652
select id, category, subcategory, content, is_active, version
from prompt_fragments
where category = $1::text
order by subcategory asc, version desc;
`
