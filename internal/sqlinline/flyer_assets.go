package sqlinline

const QInsertFlyerAsset = `--sql 029f35c9-0cfe-4c68-9e50-48d078acc45f
insert into flyer_assets(
  id,
  user_id,
  storage_key,
  mime,
  width,
  height,
  aspect_ratio,
  provider,
  seed,
  cost_usd,
  duration_ms,
  created_at
) values (
  $1::uuid,
  nullif($2::text, '')::uuid,
  $3::text,
  $4::text,
  $5::int,
  $6::int,
  $7::text,
  $8::text,
  $9::bigint,
  $10::double precision,
  $11::bigint,
  now()
) returning created_at;
`

const QSelectFlyerAssetByID = `--sql c4545518-63ee-4037-bf3c-f993767507aa
select id, coalesce(user_id::text, ''), storage_key, mime, width, height, aspect_ratio, provider, seed, cost_usd, duration_ms, created_at
from flyer_assets
where id = $1::uuid
limit 1;
`

const QListFlyerAssetsByUser = `--sql d1b82c5b-dc92-44ae-bd50-d591631e560e
select id, coalesce(user_id::text, ''), storage_key, mime, width, height, aspect_ratio, provider, seed, cost_usd, duration_ms, created_at
from flyer_assets
where user_id = $1::uuid
order by created_at desc
limit $2::int offset $3::int;
`
